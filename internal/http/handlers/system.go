package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"sort"
	"time"

	intconfig "travelbooking/internal/config"
	"travelbooking/internal/http/middleware"
	"travelbooking/internal/repositories"
	"travelbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

func (a *API) db() *sql.DB {
	if a.DB != nil {
		return a.DB
	}
	return intconfig.DB
}

// SetRouter records the engine listed by /api/routes.
func (a *API) SetRouter(r *gin.Engine) {
	a.routerMu.Lock()
	defer a.routerMu.Unlock()
	a.router = r
}

// GET /api/health reports "degraded" with 503 when the database does not answer a ping.
func (a *API) Health(c *gin.Context) {
	status, state, dbState := http.StatusOK, "ok", "ok"
	if conn := a.db(); conn == nil {
		status, state, dbState = http.StatusServiceUnavailable, "degraded", "not connected"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := conn.PingContext(ctx); err != nil {
			utils.LogWarn(middleware.GetRequestID(c), "system", "health", err.Error())
			status, state, dbState = http.StatusServiceUnavailable, "degraded", "unreachable"
		}
	}

	cache := "memory"
	if intconfig.Redis != nil {
		cache = "redis"
	}
	c.JSON(status, gin.H{
		"status":   state,
		"service":  a.settings().Get("AGENCY_NAME"),
		"database": dbState,
		"cache":    cache,
		"time":     utils.FormatDateTime(a.now()),
	})
}

// GET /api/db-check
func (a *API) DBCheck(c *gin.Context) {
	conn := a.db()
	if conn == nil {
		respondError(c, http.StatusInternalServerError, "db_unavailable", "database not connected", nil)
		return
	}
	n, err := repositories.BookingRepository{DB: conn}.Count(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "db_query_failed", "database query failed: "+err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "bookings_in_db": n})
}

// GET /api/routes lists mounted routes sorted by path.
func (a *API) Routes(c *gin.Context) {
	a.routerMu.RLock()
	r := a.router
	a.routerMu.RUnlock()
	if r == nil {
		respondError(c, http.StatusServiceUnavailable, "not_ready", "router not ready", nil)
		return
	}

	routes := r.Routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{"method": rt.Method, "path": rt.Path})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "routes": out})
}
