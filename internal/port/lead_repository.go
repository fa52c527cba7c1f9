package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadscan/internal/domain"
)

// LeadRepository persists finished leads. The extraction pipeline
// never writes through it directly; callers store the value the
// pipeline returns.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	List(ctx context.Context, limit, offset int) ([]domain.Lead, error)
	// ListDueForAudit returns leads with stored images whose last audit
	// is older than the cutoff, oldest first.
	ListDueForAudit(ctx context.Context, cutoff time.Time, limit int) ([]domain.Lead, error)
	MarkAudited(ctx context.Context, id uuid.UUID, auditedAt time.Time) error
}
