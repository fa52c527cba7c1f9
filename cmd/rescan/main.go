package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"leadscan/internal/config"
	"leadscan/internal/drift"
	"leadscan/internal/extract"
	_ "leadscan/internal/extract/gemini"
	_ "leadscan/internal/extract/openai"
	"leadscan/internal/images"
	notifynoop "leadscan/internal/notify/noop"
	notifyses "leadscan/internal/notify/ses"
	"leadscan/internal/port"
	"leadscan/internal/repository/postgres"
	"leadscan/internal/service"
	"leadscan/internal/storage/s3"
)

// rescan runs a single drift audit batch and exits. Useful for cron
// driven deployments that do not keep the server's background worker
// running.
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
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

	providers, names, err := extract.BuildChain(&cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to build provider chain: %w", err)
	}
	extractor := extract.NewRouter(providers, names)

	notifier, err := buildNotifier(&cfg.Notify)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	s3Client, err := s3.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	fetcher := images.NewFetcher(30 * time.Second)
	rescanner := drift.NewRescanner(extractor, fetcher, notifier, s3Client, cfg.S3)

	worker := service.NewRescanWorker(leadRepo, rescanner, service.RescanWorkerConfig{
		PollInterval:  time.Duration(cfg.Rescan.PollIntervalSecs) * time.Second,
		AuditInterval: time.Duration(cfg.Rescan.AuditIntervalHours) * time.Hour,
		Concurrency:   cfg.Rescan.Concurrency,
		BatchSize:     cfg.Rescan.BatchSize,
	})

	worker.RunOnce(context.Background())
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
