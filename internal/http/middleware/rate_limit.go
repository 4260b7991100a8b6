package middleware

import (
	"net/http"
	"sync"
	"time"

	"travelbooking/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	perMin   int
	lastSeen time.Time
}

// IPLimiter keeps one token bucket per client IP. The per-minute budget is
// read on every request so settings changes apply without a restart.
type IPLimiter struct {
	PerMinute func() int
	IdleTTL   time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
	swept    time.Time
}

func NewIPLimiter(perMinute func() int) *IPLimiter {
	return &IPLimiter{PerMinute: perMinute, IdleTTL: 10 * time.Minute, visitors: map[string]*visitor{}}
}

// Allow reports whether ip may make another request now. A budget <= 0 disables limiting.
func (l *IPLimiter) Allow(ip string) bool {
	n := l.PerMinute()
	if n <= 0 {
		return true
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > l.IdleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.IdleTTL {
				delete(l.visitors, k)
			}
		}
		l.swept = now
	}

	v, ok := l.visitors[ip]
	if !ok || v.perMin != n {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n), perMin: n}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit rejects clients that exceed their per-minute budget with 429.
func RateLimit(l *IPLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			utils.LogWarn(GetRequestID(c), "security", "rate_limit", "ip="+c.ClientIP()+" path="+c.Request.URL.Path)
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"code":       "rate_limited",
				"message":    "Too many requests, please try again later",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
