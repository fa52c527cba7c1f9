package noop

import (
	"context"
	"log"
	"strings"

	"leadscan/internal/port"
)

type noopNotifier struct{}

// NewNoopNotifier creates a no-op Notifier that logs drift notices to stdout.
func NewNoopNotifier() port.Notifier {
	return &noopNotifier{}
}

func (n *noopNotifier) NotifyDrift(_ context.Context, notice port.DriftNotice) error {
	log.Printf("[NOOP NOTIFY] lead %s drifted: changed=[%s] missing_phones=[%s]",
		notice.LeadID,
		strings.Join(notice.ChangedFields, ", "),
		strings.Join(notice.MissingPhones, ", "),
	)
	return nil
}
