package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"partforge/internal/api"
	"partforge/internal/config"
	"partforge/internal/database"
	"partforge/internal/ingest"
	"partforge/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.Initialize(database.Options{
		Driver:      cfg.DatabaseDriver,
		DSN:         cfg.DatabaseURL,
		AutoMigrate: cfg.AutoMigrate,
		Verbose:     cfg.Environment == "development",
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	cycle, err := ingest.FromConfig(cfg, db)
	if err != nil {
		log.Fatalf("Failed to build ingest cycle: %v", err)
	}

	w, err := worker.New(cycle, worker.Options{
		Interval:       cfg.Interval,
		BackoffCeiling: cfg.BackoffCeiling,
	})
	if err != nil {
		log.Fatalf("Failed to build worker: %v", err)
	}

	log.Printf("Worker configured: provider=%s region=%s categories=%v interval=%s",
		cfg.Provider, cfg.Region, cfg.CategoryIDs(), cfg.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var srv *http.Server
	if cfg.StatusAddr != "" {
		if cfg.Environment != "development" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv = &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           api.NewRouter(db, w),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("[api] Status server listening on %s", cfg.StatusAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[api] Status server stopped: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received %s, shutting down after the current cycle", sig)
		cancel()
	}()

	if err := w.Run(ctx); err != nil {
		log.Printf("Worker exited: %v", err)
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[api] Shutdown: %v", err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("Stopped")
}
