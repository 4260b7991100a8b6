package middleware

import (
	"log"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
)

var (
	statusOK     = color.New(color.FgGreen).SprintFunc()
	statusWarn   = color.New(color.FgYellow).SprintFunc()
	statusFailed = color.New(color.FgRed, color.Bold).SprintFunc()
)

func colorStatus(status int) string {
	switch {
	case status >= 500:
		return statusFailed(status)
	case status >= 400:
		return statusWarn(status)
	default:
		return statusOK(status)
	}
}

// Logger prints one access line per request including request_id when available.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		log.Printf("[HTTP] request_id=%s method=%s path=%s status=%s latency_ms=%.3f ip=%s",
			GetRequestID(c),
			c.Request.Method,
			c.Request.URL.Path,
			colorStatus(c.Writer.Status()),
			float64(latency.Microseconds())/1000.0,
			c.ClientIP(),
		)
	}
}
