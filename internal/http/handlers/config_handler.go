package handlers

import (
	"net/http"
	"strings"

	"travelbooking/internal/domain"
	"travelbooking/internal/http/middleware"
	"travelbooking/internal/services"
	"travelbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

type configsRequest struct {
	Configs map[string]FlexString `json:"configs" binding:"required"`
}

func (r configsRequest) values() map[string]string {
	out := make(map[string]string, len(r.Configs))
	for k, v := range r.Configs {
		out[k] = string(v)
	}
	return out
}

// GET /api/config/categories
func (a *API) ConfigCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": services.SettingCategories()})
}

// GET /api/config/schema
func (a *API) ConfigSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "schema": services.SettingFields("")})
}

// GET /api/config/category/:category
func (a *API) ConfigCategory(c *gin.Context) {
	category := strings.ToLower(strings.TrimSpace(c.Param("category")))
	values, err := a.settings().Values(category)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "category": category, "configs": values})
}

// POST /api/config/validate
func (a *API) ValidateConfig(c *gin.Context) {
	var req configsRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res := services.ValidateBatch(req.values())
	c.JSON(http.StatusOK, gin.H{
		"success": res.OK(),
		"valid":   res.Valid,
		"invalid": res.Invalid,
		"errors":  res.Errors,
	})
}

// POST /api/config/update
func (a *API) UpdateConfig(c *gin.Context) {
	var req configsRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := a.settings().Update(c.Request.Context(), req.values())
	if err != nil {
		if domain.IsValidation(err) {
			respondError(c, http.StatusBadRequest, "validation_error", err.Error(), res.Errors)
			return
		}
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "config", "update",
		"keys="+strings.Join(res.Valid, ",")+" by="+middleware.AdminUser(c))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration updated successfully",
		"updated": res.Valid,
	})
}

// POST /api/config/refresh
func (a *API) RefreshConfig(c *gin.Context) {
	if err := a.settings().Refresh(c.Request.Context()); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Configuration cache refreshed"})
}

type testEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// POST /api/config/test_email
func (a *API) TestEmail(c *gin.Context) {
	var req testEmailRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := a.Email
	svc.Config = a.settings()
	svc.RequestID = middleware.GetRequestID(c)
	if err := svc.SendTestEmail(c.Request.Context(), strings.TrimSpace(req.Email)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Test email sent successfully to " + strings.TrimSpace(req.Email)})
}

type testWhatsAppRequest struct {
	Phone FlexString `json:"phone" binding:"required"`
}

// POST /api/config/test_whatsapp
func (a *API) TestWhatsApp(c *gin.Context) {
	var req testWhatsAppRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := a.WhatsApp
	svc.Config = a.settings()
	svc.RequestID = middleware.GetRequestID(c)
	res := svc.SendTest(c.Request.Context(), req.Phone.String())
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
		if !services.IsValidPhone(req.Phone.String()) {
			status = http.StatusBadRequest
		}
	}
	c.JSON(status, gin.H{"success": res.Success, "result": res})
}
