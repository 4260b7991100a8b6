package handlers

import (
	"database/sql"
	"sync"
	"time"

	intconfig "travelbooking/internal/config"
	"travelbooking/internal/http/middleware"
	"travelbooking/internal/repositories"
	"travelbooking/internal/services"

	"github.com/gin-gonic/gin"
)

// API holds the shared dependencies handlers build their services from.
// Zero values fall back to the process-wide connection and settings.
type API struct {
	DB        *sql.DB
	Env       intconfig.Env
	Config    *services.SettingsStore
	BillsDir  string
	Locations services.LocationService
	Email     services.EmailService
	WhatsApp  services.WhatsAppService
	Now       func() time.Time

	routerMu sync.RWMutex
	router   *gin.Engine
}

// Settings is the store handlers read; the process-wide one unless Config is set.
func (a *API) Settings() *services.SettingsStore {
	if a.Config != nil {
		return a.Config
	}
	return services.Settings()
}

func (a *API) settings() *services.SettingsStore { return a.Settings() }

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *API) docs(c *gin.Context) services.DocsService {
	return services.DocsService{
		Dir:       a.BillsDir,
		Config:    a.settings(),
		Repo:      repositories.BookingRepository{DB: a.DB},
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *API) bookings(c *gin.Context) services.BookingService {
	return services.BookingService{
		DB:        a.DB,
		Config:    a.settings(),
		Invoices:  a.docs(c),
		RequestID: middleware.GetRequestID(c),
		Now:       a.Now,
	}
}

func (a *API) notify(c *gin.Context) services.NotifyService {
	return services.NotifyService{
		Config:    a.settings(),
		Docs:      a.docs(c),
		Email:     a.Email,
		WhatsApp:  a.WhatsApp,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *API) backups(c *gin.Context) services.BackupService {
	return services.BackupService{
		Config:    a.settings(),
		Source:    a.bookings(c),
		RequestID: middleware.GetRequestID(c),
		Now:       a.Now,
	}
}

func (a *API) locations(c *gin.Context) services.LocationService {
	l := a.Locations
	l.RequestID = middleware.GetRequestID(c)
	return l
}
