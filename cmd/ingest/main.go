package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"partforge/internal/config"
	"partforge/internal/database"
	"partforge/internal/ingest"

	"github.com/joho/godotenv"
)

// Runs a single ingest cycle and exits non-zero if it fails.
func main() {
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
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	cycle, err := ingest.FromConfig(cfg, db)
	if err != nil {
		log.Fatalf("Failed to build ingest cycle: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := cycle.Run(ctx)
	if err != nil {
		log.Printf("Ingest failed: %v", err)
		stop()
		os.Exit(1)
	}

	for _, entry := range cfg.Categories {
		log.Printf("  %-12s %d listings", entry.Category, report.PerCategory[entry.Category])
	}
}
