package handlers

import (
	"net/http"
	"time"

	"travelbooking/internal/http/middleware"
	"travelbooking/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login issues an admin token for the settings and backup routes.
func (a *API) Login(c *gin.Context) {
	if !a.Env.AdminAuthEnabled() {
		respondError(c, http.StatusBadRequest, "auth_disabled", "Admin login is not configured", nil)
		return
	}
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	if req.Username != a.Env.AdminUsername ||
		bcrypt.CompareHashAndPassword([]byte(a.Env.AdminPasswordHash), []byte(req.Password)) != nil {
		utils.LogWarn(middleware.GetRequestID(c), "auth", "login", "rejected user="+req.Username+" ip="+c.ClientIP())
		respondError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password", nil)
		return
	}

	ttl := time.Duration(a.settings().Int("SECURITY_SESSION_TIMEOUT", 60)) * time.Minute
	now := a.now()
	token, err := middleware.IssueAdminToken(a.Env.JWTSecret, req.Username, ttl, now)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "auth", "login", "user="+req.Username)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": now.Add(ttl).Unix(),
		"user":       gin.H{"username": req.Username, "role": "admin"},
	})
}
