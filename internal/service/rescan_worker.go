package service

import (
	"context"
	"log"
	"sync"
	"time"

	"leadscan/internal/domain"
	"leadscan/internal/port"
)

// RescanWorkerConfig holds settings for the drift audit worker.
type RescanWorkerConfig struct {
	PollInterval  time.Duration
	AuditInterval time.Duration
	Concurrency   int
	BatchSize     int
}

// RescanWorker polls for leads whose last audit is stale and re-runs
// the extraction pipeline over their stored images.
type RescanWorker struct {
	leads     port.LeadRepository
	rescanner Rescanner
	cfg       RescanWorkerConfig
	wg        sync.WaitGroup
}

// NewRescanWorker creates a new RescanWorker.
func NewRescanWorker(leads port.LeadRepository, rescanner Rescanner, cfg RescanWorkerConfig) *RescanWorker {
	return &RescanWorker{leads: leads, rescanner: rescanner, cfg: cfg}
}

// Start runs the polling loop until ctx is canceled. It blocks until
// all in-flight audits have finished.
func (w *RescanWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("rescanWorker: started (poll=%s, concurrency=%d, batch=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			log.Printf("rescanWorker: shutting down, waiting for in-flight audits...")
			w.wg.Wait()
			log.Printf("rescanWorker: shutdown complete")
			return
		case <-ticker.C:
			w.runBatch(ctx, sem)
		}
	}
}

// RunOnce audits a single batch and returns; used by the batch CLI.
func (w *RescanWorker) RunOnce(ctx context.Context) {
	sem := make(chan struct{}, w.cfg.Concurrency)
	w.runBatch(ctx, sem)
	w.wg.Wait()
}

func (w *RescanWorker) runBatch(ctx context.Context, sem chan struct{}) {
	available := w.cfg.Concurrency - len(sem)
	if available <= 0 {
		return
	}
	if available > w.cfg.BatchSize {
		available = w.cfg.BatchSize
	}

	cutoff := time.Now().UTC().Add(-w.cfg.AuditInterval)
	leads, err := w.leads.ListDueForAudit(ctx, cutoff, available)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("rescanWorker: ListDueForAudit error: %v", err)
		return
	}

	for i := range leads {
		lead := leads[i] // copy for goroutine

		sem <- struct{}{} // acquire
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-sem }() // release

			// Use a fresh context independent of the poll context so
			// in-flight audits complete even during shutdown.
			auditCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			w.auditLead(auditCtx, &lead)
		}()
	}
}

func (w *RescanWorker) auditLead(ctx context.Context, lead *domain.Lead) {
	report, err := w.rescanner.Rescan(ctx, lead)
	if err != nil {
		log.Printf("rescanWorker: lead %s: %v", lead.ID, err)
		return
	}
	if report.Drifted {
		log.Printf("rescanWorker: lead %s drifted (fields=%d missingPhones=%d)",
			lead.ID, len(report.Rows), len(report.MissingPhones))
	}
	if err := w.leads.MarkAudited(ctx, lead.ID, time.Now().UTC()); err != nil {
		log.Printf("rescanWorker: marking lead %s audited: %v", lead.ID, err)
	}
}
