package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StringList is a []string stored as a JSONB column.
type StringList []string

// Value implements driver.Valuer.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// Lead represents a persisted contact record extracted from a card scan.
// Details holds the serialized contact record; the pipeline itself never
// writes leads, callers persist the value it returns.
type Lead struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	Details          json.RawMessage `db:"details" json:"details"`
	OCRText          string          `db:"ocr_text" json:"ocr_text"`
	Confidence       float64         `db:"confidence" json:"confidence"`
	ProcessingMethod string          `db:"processing_method" json:"processing_method"`
	ModelUsed        string          `db:"model_used" json:"model_used"`
	ImageURLs        StringList      `db:"image_urls" json:"image_urls"`
	LastAuditAt      *time.Time      `db:"last_audit_at" json:"last_audit_at"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}
