package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "travelbooking/internal/config"
	"travelbooking/internal/db"
	router "travelbooking/internal/http"
	h "travelbooking/internal/http/handlers"
	"travelbooking/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	conn := intconfig.ConnectDB(env)
	defer intconfig.CloseDB()
	if err := db.EnsureSchema(conn); err != nil {
		log.Fatalf("failed to prepare schema: %v", err)
	}

	intconfig.ConnectRedis(env)
	defer intconfig.CloseRedis()

	settings := services.Settings()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := settings.Refresh(ctx); err != nil {
		log.Printf("warning: using environment settings only: %v", err)
	}
	cancel()

	api := &h.API{
		DB:        conn,
		Env:       env,
		Config:    settings,
		BillsDir:  env.BillsDir,
		Locations: services.LocationService{BaseURL: env.GeoDBURL},
	}

	sched, err := services.StartBackupScheduler(services.BackupService{
		Config: settings,
		Source: services.BookingService{DB: conn, Config: settings},
	})
	if err != nil {
		log.Printf("warning: backup scheduler not started: %v", err)
	}

	r := router.NewRouter(env, api)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server running at http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			log.Printf("warning: backup scheduler shutdown: %v", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	log.Println("Server stopped cleanly.")
}
