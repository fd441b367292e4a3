package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avosseberg/gatehouse-be/internal/api"
	"github.com/avosseberg/gatehouse-be/internal/config"
	"github.com/avosseberg/gatehouse-be/internal/database"
	"github.com/avosseberg/gatehouse-be/internal/logger"
	"github.com/avosseberg/gatehouse-be/internal/monitoring"
	"github.com/avosseberg/gatehouse-be/internal/services"
	"github.com/avosseberg/gatehouse-be/internal/validate"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up services
	rules := validate.New()
	accountService := services.NewAccountService(db, rules, cfg.BcryptCost)
	sessionService := services.NewSessionService(db, cfg.SessionTTL)

	// Set up and run the background session reaper
	reaper, err := monitoring.NewReaper(sessionService, cfg.ReapSchedule)
	if err != nil {
		log.Fatalf("Failed to initialize session reaper: %v", err)
	}
	go reaper.Run()

	// Set up router
	router := api.NewRouter(accountService, sessionService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %d\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	reaper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
