package api

import (
	"embed"
	"html/template"
	"log"
	stdhttp "net/http"

	intconfig "travelbooking/internal/config"
	h "travelbooking/internal/http/handlers"
	"travelbooking/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

func NewRouter(env intconfig.Env, a *h.API) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigin))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))
	r.MaxMultipartMemory = 8 << 20

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	limiter := middleware.NewIPLimiter(func() int {
		return a.Settings().Int("SECURITY_API_RATE_LIMIT", 120)
	})
	limited := middleware.RateLimit(limiter)
	admin := middleware.AdminAuth(env.JWTSecret, env.AdminAuthEnabled())

	// Pages and booking actions
	r.GET("/", a.BookingForm)
	r.POST("/", limited, a.CreateBooking)
	r.GET("/bookings", a.BookingsPage)
	r.GET("/search", a.SearchRedirect)
	r.GET("/get_booking/:id", a.GetBooking)
	r.POST("/update_booking/:id", limited, a.UpdateBooking)
	r.POST("/delete_booking/:id", limited, a.DeleteBooking)
	r.POST("/bulk_delete_bookings", limited, a.BulkDeleteBookings)
	r.GET("/invoice/:id", a.GetInvoice)
	r.GET("/regenerate_invoice/:id", a.GetInvoice)
	r.GET("/export_bookings", a.ExportBookings)
	r.POST("/send_whatsapp/:id", limited, a.SendWhatsApp)

	api := r.Group("/api", limited)
	{
		api.GET("/health", a.Health)
		api.GET("/db-check", a.DBCheck)
		api.GET("/routes", a.Routes)

		api.GET("/search_bookings", a.SearchBookings)
		api.POST("/send_booking_email/:id", a.SendBookingEmail)

		// Autocomplete
		api.GET("/cities", a.Cities)
		api.GET("/countries", a.Countries)
		api.GET("/hotel_areas/:city", a.HotelAreas)
		api.GET("/popular_routes", a.PopularRoutes)

		// Auth
		api.POST("/auth/login", a.Login)

		// Settings
		cfg := api.Group("/config", admin)
		cfg.GET("/categories", a.ConfigCategories)
		cfg.GET("/schema", a.ConfigSchema)
		cfg.GET("/category/:category", a.ConfigCategory)
		cfg.POST("/validate", a.ValidateConfig)
		cfg.POST("/update", a.UpdateConfig)
		cfg.POST("/refresh", a.RefreshConfig)
		cfg.POST("/test_email", a.TestEmail)
		cfg.POST("/test_whatsapp", a.TestWhatsApp)

		// Backups
		backups := api.Group("/backups", admin)
		backups.GET("", a.ListBackups)
		backups.POST("", a.CreateBackup)
		backups.POST("/cleanup", a.CleanupBackups)
	}

	a.SetRouter(r)
	return r
}
