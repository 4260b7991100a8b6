package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"travelbooking/internal/http/middleware"
	"travelbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

// RespondFailure sends the {success:false, message} payload used by the
// booking pages.
func RespondFailure(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success":    false,
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	})
}

// respondBookingError maps domain errors for the booking routes.
func respondBookingError(c *gin.Context, action string, err error) {
	status, _, known := classify(err)
	switch {
	case !known:
		utils.LogWarn(middleware.GetRequestID(c), "http", action, err.Error())
		RespondFailure(c, status, "An unexpected error occurred")
	case status == http.StatusNotFound:
		RespondFailure(c, status, "Booking not found")
	default:
		RespondFailure(c, status, err.Error())
	}
}

// bookingID parses the :id path param.
func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondFailure(c, http.StatusBadRequest, "Invalid booking id")
		return 0, false
	}
	return id, true
}

// bindOptionalJSON decodes the body into dst; an empty body leaves dst untouched.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "empty_body", "No data provided", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", "Invalid request payload", err.Error())
		return false
	}
	return true
}
