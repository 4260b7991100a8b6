package handlers

import (
	"travelbooking/internal/services"

	"github.com/gin-gonic/gin"
)

// GetInvoice regenerates the invoice PDF and sends it as an attachment.
// Also mounted on /regenerate_invoice/:id.
func (a *API) GetInvoice(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	_, path, err := a.docs(c).GenerateInvoiceByID(c.Request.Context(), id)
	if err != nil {
		respondBookingError(c, "invoice", err)
		return
	}
	c.FileAttachment(path, services.InvoiceFilename(id))
}
