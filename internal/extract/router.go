package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"leadscan/internal/contact"
	"leadscan/internal/domain"
	"leadscan/internal/port"
)

// Input is one extraction request: either decoded image bytes (vision
// mode) or pre-extracted text (text mode).
type Input struct {
	ImageBytes  []byte
	ContentType string
	Text        string
	Mode        domain.ExtractionMethod
}

// Outcome is the result of a single extraction run. It is created once
// per call and never persisted directly; callers decide whether to
// store it as part of a lead.
type Outcome struct {
	OK         bool
	Record     contact.Record
	RawText    string
	Confidence float64
	Method     domain.ExtractionMethod
	ModelUsed  string
	Err        error
}

// circuitState tracks rate-limit backoff for a single provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// Router orders recognition providers and tries each in sequence until
// one yields a non-empty result, then normalizes the winner's output.
// Each provider is tried at most once per run; rate-limited providers
// are skipped until their reset time.
type Router struct {
	providers []port.Provider
	names     []string
	circuits  []*circuitState
}

// NewRouter creates a Router from an ordered list of providers and their names.
func NewRouter(providers []port.Provider, names []string) *Router {
	circuits := make([]*circuitState, len(providers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &Router{providers: providers, names: names, circuits: circuits}
}

// Run executes the provider fallback chain for one input. A provider
// answering with zero usable fields counts as a failure; an all-empty
// record carries no signal for the caller.
func (r *Router) Run(ctx context.Context, in Input) Outcome {
	out := Outcome{Record: contact.Empty(), Method: in.Mode}

	if len(r.providers) == 0 {
		out.Err = domain.ErrProviderUnavailable
		return out
	}

	pin := port.ExtractInput{ContentType: in.ContentType, Text: in.Text, Mode: in.Mode}
	if in.Mode == domain.MethodVision {
		path, cleanup, err := spoolImage(in.ImageBytes, in.ContentType)
		if err != nil {
			out.Err = fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
			return out
		}
		// The temp image belongs to this run alone: released on every
		// exit path, panics included.
		defer cleanup()
		pin.ImagePath = path
	}

	now := time.Now()
	var lastErr error
	sawEmpty := false
	attempted := false

	for i, p := range r.providers {
		if resetAt, open := r.circuits[i].isOpenWithReset(now); open {
			log.Printf("extract.Router: skipping %s (circuit open until %s)", r.names[i], resetAt.Format(time.RFC3339))
			continue
		}
		attempted = true

		res, err := p.Extract(ctx, pin)
		if err != nil {
			log.Printf("extract.Router: %s failed: %v", r.names[i], err)
			lastErr = err
			var rlErr *RateLimitError
			if errors.As(err, &rlErr) {
				r.circuits[i].open(now.Add(rlErr.RetryAfter))
			}
			continue
		}

		var raw map[string]any
		if err := json.Unmarshal(res.Fields, &raw); err != nil {
			log.Printf("extract.Router: %s returned malformed JSON: %v", r.names[i], err)
			lastErr = fmt.Errorf("%s: malformed JSON: %w", r.names[i], err)
			continue
		}

		rec := contact.Normalize(contact.FromRaw(raw))
		if rec.IsEmpty() {
			log.Printf("extract.Router: %s answered with no usable fields", r.names[i])
			sawEmpty = true
			continue
		}

		out.OK = true
		out.Record = rec
		out.Confidence = contact.Confidence(rec)
		out.RawText = res.RawText
		if out.RawText == "" && in.Mode == domain.MethodText {
			out.RawText = in.Text
		}
		out.ModelUsed = res.ModelUsed
		return out
	}

	switch {
	case sawEmpty && lastErr == nil:
		out.Err = domain.ErrExtractionEmpty
	case !attempted:
		out.Err = fmt.Errorf("%w: all providers rate limited", domain.ErrAllProvidersFailed)
	case lastErr != nil:
		out.Err = fmt.Errorf("%w: %v", domain.ErrAllProvidersFailed, lastErr)
	default:
		out.Err = domain.ErrExtractionEmpty
	}
	return out
}

// RunImages extracts from several images of the same card, one at a
// time, and merges the outcomes left to right. Sequential on purpose:
// providers rate-limit per key, and the merger needs each outcome
// before folding the next.
func (r *Router) RunImages(ctx context.Context, inputs []Input) Outcome {
	merged := contact.Empty()
	var texts []string
	var firstErr error
	modelUsed := ""
	any := false

	for _, in := range inputs {
		o := r.Run(ctx, in)
		if !o.OK {
			if firstErr == nil {
				firstErr = o.Err
			}
			continue
		}
		any = true
		merged = contact.Merge(merged, o.Record)
		if o.RawText != "" {
			texts = append(texts, o.RawText)
		}
		if modelUsed == "" {
			modelUsed = o.ModelUsed
		}
	}

	out := Outcome{Record: merged, Method: domain.MethodVision, ModelUsed: modelUsed}
	if !any {
		out.Record = contact.Empty()
		out.Err = firstErr
		if out.Err == nil {
			out.Err = domain.ErrInvalidInput
		}
		return out
	}
	out.OK = true
	out.Confidence = contact.Confidence(merged)
	out.RawText = strings.Join(texts, "\n\n")
	return out
}

// spoolImage materializes decoded image bytes to a transient file for
// the provider to read. The returned cleanup logs removal failures but
// never escalates them; they don't affect correctness of the result.
func spoolImage(data []byte, contentType string) (string, func(), error) {
	if len(data) == 0 {
		return "", nil, errors.New("empty image payload")
	}

	ext := ".img"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	}

	f, err := os.CreateTemp("", "leadscan-card-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp image: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("extract.Router: temp image cleanup failed: %v", err)
		}
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp image: %w", err)
	}
	return path, cleanup, nil
}
