package handlers

import (
	"net/http"

	"travelbooking/internal/domain"
	"travelbooking/internal/http/middleware"
	"travelbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

// apiError is the error envelope of the /api routes.
type apiError struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, apiError{
		Error:     message,
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// domainStatus is checked in order; the first matching class wins.
var domainStatus = []struct {
	match  func(error) bool
	status int
	code   string
}{
	{domain.IsValidation, http.StatusBadRequest, "validation_error"},
	{domain.IsDisabled, http.StatusBadRequest, "feature_disabled"},
	{domain.IsNotFound, http.StatusNotFound, "not_found"},
	{domain.IsConflict, http.StatusConflict, "conflict"},
	{domain.IsUpstream, http.StatusBadGateway, "upstream_error"},
}

func classify(err error) (int, string, bool) {
	for _, d := range domainStatus {
		if d.match(err) {
			return d.status, d.code, true
		}
	}
	return http.StatusInternalServerError, "internal_error", false
}

// RespondDomainError maps domain errors to HTTP responses. Unknown errors
// are logged and hidden behind a generic 500.
func RespondDomainError(c *gin.Context, err error) {
	status, code, known := classify(err)
	if !known {
		utils.LogWarn(middleware.GetRequestID(c), "http", "internal_error", err.Error())
		respondError(c, status, code, "An unexpected error occurred", nil)
		return
	}
	respondError(c, status, code, err.Error(), nil)
}
