package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"leadscan/internal/domain"
	"leadscan/internal/port"
)

type leadRepo struct {
	db *sqlx.DB
}

// NewLeadRepo creates a new PostgreSQL-backed LeadRepository.
func NewLeadRepo(db *sqlx.DB) port.LeadRepository {
	return &leadRepo{db: db}
}

func (r *leadRepo) Create(ctx context.Context, lead *domain.Lead) error {
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	query := `INSERT INTO leads (
		id, details, ocr_text, confidence, processing_method, model_used,
		image_urls, last_audit_at, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10
	)`

	_, err := r.db.ExecContext(ctx, query,
		lead.ID, lead.Details, lead.OCRText, lead.Confidence, lead.ProcessingMethod, lead.ModelUsed,
		lead.ImageURLs, lead.LastAuditAt, lead.CreatedAt, lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("leadRepo.Create: %w", err)
	}
	return nil
}

func (r *leadRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.GetContext(ctx, &lead,
		"SELECT * FROM leads WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, fmt.Errorf("leadRepo.GetByID: %w", err)
	}
	return &lead, nil
}

func (r *leadRepo) List(ctx context.Context, limit, offset int) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := r.db.SelectContext(ctx, &leads,
		`SELECT * FROM leads ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("leadRepo.List: %w", err)
	}
	return leads, nil
}

func (r *leadRepo) ListDueForAudit(ctx context.Context, cutoff time.Time, limit int) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := r.db.SelectContext(ctx, &leads,
		`SELECT * FROM leads
		 WHERE jsonb_array_length(image_urls) > 0
		   AND (last_audit_at IS NULL OR last_audit_at < $1)
		 ORDER BY last_audit_at ASC NULLS FIRST, created_at ASC
		 LIMIT $2`,
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("leadRepo.ListDueForAudit: %w", err)
	}
	return leads, nil
}

func (r *leadRepo) MarkAudited(ctx context.Context, id uuid.UUID, auditedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE leads SET last_audit_at = $1, updated_at = $2 WHERE id = $3`,
		auditedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("leadRepo.MarkAudited: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}
