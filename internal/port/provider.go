package port

import (
	"context"
	"encoding/json"

	"leadscan/internal/domain"
)

// ExtractInput carries one extraction attempt. For vision mode the
// router has materialized the decoded image at ImagePath; the file is
// owned by the in-flight router call and removed before it returns.
type ExtractInput struct {
	ImagePath   string
	ContentType string
	Text        string
	Mode        domain.ExtractionMethod
}

// ExtractOutput is the raw parsed result from one recognition backend.
type ExtractOutput struct {
	Fields    json.RawMessage // outermost JSON object from the model reply
	RawText   string          // full card transcription, when the model returned one
	ModelUsed string
}

// Provider abstracts a single external recognition backend. Failures
// of any kind surface as an error return; providers never panic past
// this boundary and never persist anything.
type Provider interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
