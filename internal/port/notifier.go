package port

import (
	"context"

	"github.com/google/uuid"
)

// DriftNotice summarizes the outcome of a lead rescan for delivery.
type DriftNotice struct {
	LeadID        uuid.UUID
	ChangedFields []string
	MissingPhones []string
}

// Notifier delivers drift notices produced by the audit workflow.
type Notifier interface {
	NotifyDrift(ctx context.Context, notice DriftNotice) error
}
