package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"partforge/internal/catalog"
	"partforge/internal/config"
	"partforge/internal/database"
	"partforge/internal/export"

	"github.com/joho/godotenv"
)

var (
	outPath  = flag.String("out", "parts.xlsx", "output workbook path")
	category = flag.String("category", "", "export a single category (cpu, gpu, motherboard, ram, storage, psu)")
	timeout  = flag.Duration("timeout", 2*time.Minute, "query timeout")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var opts export.Options
	if *category != "" {
		c, err := catalog.Parse(*category)
		if err != nil {
			log.Fatalf("Invalid -category: %v", err)
		}
		opts.Category = c
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.Initialize(database.Options{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *outPath, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	summary, err := export.Write(ctx, db, f, opts)
	cancel()
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(*outPath)
		log.Fatalf("Export failed: %v", err)
	}

	log.Printf("Wrote %d parts and %d offers to %s", summary.Parts, summary.Offers, *outPath)
}
