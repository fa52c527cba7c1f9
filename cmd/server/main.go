package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"leadscan/internal/config"
	"leadscan/internal/drift"
	"leadscan/internal/extract"
	_ "leadscan/internal/extract/gemini"
	_ "leadscan/internal/extract/openai"
	"leadscan/internal/handler"
	"leadscan/internal/images"
	notifynoop "leadscan/internal/notify/noop"
	notifyses "leadscan/internal/notify/ses"
	"leadscan/internal/port"
	"leadscan/internal/qr"
	"leadscan/internal/repository/postgres"
	"leadscan/internal/router"
	"leadscan/internal/service"
	s3storage "leadscan/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	leadRepo := postgres.NewLeadRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Build the extraction provider chain
	providers, names, err := extract.BuildChain(&cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to build provider chain: %w", err)
	}
	if len(providers) == 0 {
		log.Printf("warning: no extraction providers configured; scans will fail until one is set")
	}
	extractor := extract.NewRouter(providers, names)

	notifier, err := buildNotifier(&cfg.Notify)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	fetcher := images.NewFetcher(30 * time.Second)
	rescanner := drift.NewRescanner(extractor, fetcher, notifier, s3Client, cfg.S3)
	classifier := qr.NewClassifier(extractor)

	scanSvc := service.NewScanService(extractor, classifier, rescanner, leadRepo, s3Client, cfg.Scan, cfg.S3)

	// Initialize handlers
	scanH := handler.NewScanHandler(scanSvc)
	leadH := handler.NewLeadHandler(leadRepo, scanSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, scanH, leadH, healthH)

	// Background drift audit worker
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := service.NewRescanWorker(leadRepo, rescanner, service.RescanWorkerConfig{
		PollInterval:  time.Duration(cfg.Rescan.PollIntervalSecs) * time.Second,
		AuditInterval: time.Duration(cfg.Rescan.AuditIntervalHours) * time.Hour,
		Concurrency:   cfg.Rescan.Concurrency,
		BatchSize:     cfg.Rescan.BatchSize,
	})
	go worker.Start(ctx)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func buildNotifier(cfg *config.NotifyConfig) (port.Notifier, error) {
	switch cfg.Provider {
	case "ses":
		return notifyses.NewSESNotifier(cfg.Region, cfg.FromAddress, cfg.ToAddress)
	default:
		return notifynoop.NewNoopNotifier(), nil
	}
}
