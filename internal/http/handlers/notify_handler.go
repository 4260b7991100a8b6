package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type whatsappRequest struct {
	Phone   FlexString `json:"phone"`
	Message string     `json:"message"`
}

// POST /send_whatsapp/:id
func (a *API) SendWhatsApp(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req whatsappRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		RespondFailure(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	res, err := a.notify(c).SendBookingWhatsApp(c.Request.Context(), id, req.Phone.String(), req.Message)
	if err != nil {
		respondBookingError(c, "send_whatsapp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    res.Message,
		"deliveries": res.Deliveries,
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

// POST /api/send_booking_email/:id
func (a *API) SendBookingEmail(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req emailRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		RespondFailure(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	msg, err := a.notify(c).SendBookingEmail(c.Request.Context(), id, req.Email)
	if err != nil {
		respondBookingError(c, "send_email", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}
