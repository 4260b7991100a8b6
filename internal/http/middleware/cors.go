package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:8081",
}

// CORS allows the given origins, or the local dev origins when none are set.
func CORS(origins []string) gin.HandlerFunc {
	cc := cors.DefaultConfig()
	cc.AllowOrigins = defaultOrigins
	if len(origins) > 0 {
		cc.AllowOrigins = origins
	}
	cc.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cc.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader}
	cc.ExposeHeaders = []string{RequestIDHeader, "Content-Disposition"}
	cc.AllowCredentials = true
	cc.MaxAge = 24 * time.Hour
	return cors.New(cc)
}
