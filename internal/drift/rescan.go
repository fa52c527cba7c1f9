package drift

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"leadscan/internal/config"
	"leadscan/internal/contact"
	"leadscan/internal/domain"
	"leadscan/internal/extract"
	"leadscan/internal/images"
	"leadscan/internal/port"
)

// maxRescanImages bounds how many stored images a single audit re-extracts.
const maxRescanImages = 3

// ImageExtractor re-runs the extraction pipeline over several images;
// satisfied by extract.Router.
type ImageExtractor interface {
	RunImages(ctx context.Context, inputs []extract.Input) extract.Outcome
}

// Report is the outcome of re-extracting a stored lead's images and
// diffing the fresh record against the persisted one.
type Report struct {
	LeadID        uuid.UUID      `json:"leadId"`
	Rows          []FieldDiffRow `json:"rows"`
	MissingPhones []string       `json:"missingPhones"`
	Extracted     contact.Record `json:"extracted"`
	Confidence    float64        `json:"confidence"`
	Drifted       bool           `json:"drifted"`
}

// Rescanner drives the offline audit path: download stored images,
// re-extract, diff against the stored record, and surface drift.
type Rescanner struct {
	extractor ImageExtractor
	fetcher   port.ImageFetcher
	notifier  port.Notifier
	storage   port.ObjectStorage
	s3Cfg     config.S3Config
}

// NewRescanner creates a Rescanner. notifier may be nil to skip
// drift notifications; storage may be nil when every stored image
// reference is already a full URL.
func NewRescanner(
	extractor ImageExtractor,
	fetcher port.ImageFetcher,
	notifier port.Notifier,
	storage port.ObjectStorage,
	s3Cfg config.S3Config,
) *Rescanner {
	return &Rescanner{
		extractor: extractor,
		fetcher:   fetcher,
		notifier:  notifier,
		storage:   storage,
		s3Cfg:     s3Cfg,
	}
}

// Rescan audits one lead. Images are downloaded by URL and processed
// sequentially through the extraction router and merger.
func (r *Rescanner) Rescan(ctx context.Context, lead *domain.Lead) (*Report, error) {
	if len(lead.ImageURLs) == 0 {
		return nil, domain.ErrNoStoredImages
	}

	var stored contact.Record
	if len(lead.Details) > 0 {
		if err := json.Unmarshal(lead.Details, &stored); err != nil {
			// A corrupt stored record would diff as if every field
			// drifted; that needs an operator, not a notification.
			log.Printf("drift.Rescanner: lead %s: corrupt stored details: %v", lead.ID, err)
		}
	}
	stored = contact.Normalize(stored)

	refs := lead.ImageURLs
	if len(refs) > maxRescanImages {
		refs = refs[:maxRescanImages]
	}

	var inputs []extract.Input
	for _, ref := range refs {
		url, err := r.resolveURL(ctx, ref)
		if err != nil {
			log.Printf("drift.Rescanner: lead %s: resolving %s: %v", lead.ID, ref, err)
			continue
		}
		data, err := r.fetcher.Fetch(ctx, url)
		if err != nil {
			log.Printf("drift.Rescanner: lead %s: fetch failed: %v", lead.ID, err)
			continue
		}
		format, err := images.SniffFormat(data)
		if err != nil {
			log.Printf("drift.Rescanner: lead %s: %v", lead.ID, err)
			continue
		}
		inputs = append(inputs, extract.Input{
			ImageBytes:  data,
			ContentType: format.ContentType(),
			Mode:        domain.MethodVision,
		})
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("lead %s: no stored image could be fetched", lead.ID)
	}

	outcome := r.extractor.RunImages(ctx, inputs)
	if !outcome.OK {
		return nil, fmt.Errorf("re-extracting lead %s: %w", lead.ID, outcome.Err)
	}

	rows := Diff(stored, outcome.Record)
	missing := MissingPhones(stored, outcome.Record)

	report := &Report{
		LeadID:        lead.ID,
		Rows:          rows,
		MissingPhones: missing,
		Extracted:     outcome.Record,
		Confidence:    outcome.Confidence,
		Drifted:       hasDrift(rows) || len(missing) > 0,
	}

	if report.Drifted && r.notifier != nil {
		notice := port.DriftNotice{
			LeadID:        lead.ID,
			ChangedFields: changedFields(rows),
			MissingPhones: missing,
		}
		if err := r.notifier.NotifyDrift(ctx, notice); err != nil {
			// Notification failures don't invalidate the report.
			log.Printf("drift.Rescanner: lead %s: notify failed: %v", lead.ID, err)
		}
	}

	return report, nil
}

// resolveURL turns a stored image reference into a fetchable URL.
// Leads persist object keys; the bucket stays private and reads go
// through short-lived presigned URLs. Full URLs pass through for
// records written before keys were stored.
func (r *Rescanner) resolveURL(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	if r.storage == nil {
		return "", fmt.Errorf("image key %q needs object storage to presign", ref)
	}
	return r.storage.GetPresignedURL(ctx, r.s3Cfg.Bucket, ref, r.s3Cfg.PresignExpiry)
}

func hasDrift(rows []FieldDiffRow) bool {
	for _, row := range rows {
		if row.Status == domain.DiffDifferent || row.Status == domain.DiffMissingInStore {
			return true
		}
	}
	return false
}

func changedFields(rows []FieldDiffRow) []string {
	var out []string
	for _, row := range rows {
		if row.Status == domain.DiffDifferent || row.Status == domain.DiffMissingInStore {
			out = append(out, row.Field)
		}
	}
	return out
}
