package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/backups
func (a *API) ListBackups(c *gin.Context) {
	list, err := a.backups(c).List()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "backups": list})
}

// POST /api/backups
func (a *API) CreateBackup(c *gin.Context) {
	info, err := a.backups(c).Create(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Backup created: " + info.Filename,
		"backup":  info,
	})
}

type cleanupRequest struct {
	RetentionDays int `json:"retention_days" binding:"omitempty,min=1,max=3650"`
}

// POST /api/backups/cleanup
func (a *API) CleanupBackups(c *gin.Context) {
	var req cleanupRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "retention_days must be between 1 and 3650", nil)
		return
	}
	removed, err := a.backups(c).Cleanup(req.RetentionDays)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Removed %d old backup(s)", len(removed)),
		"removed": removed,
	})
}
