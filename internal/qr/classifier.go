package qr

import (
	"context"
	"regexp"
	"strings"

	"leadscan/internal/contact"
	"leadscan/internal/domain"
	"leadscan/internal/extract"
)

// Classification is the result of inspecting a decoded QR payload.
// EntryCode and Record are mutually exclusive: an access-code payload
// never carries a contact record and vice versa.
type Classification struct {
	Kind       domain.QRKind   `json:"kind"`
	EntryCode  string          `json:"entryCode,omitempty"`
	Record     *contact.Record `json:"record,omitempty"`
	RawData    string          `json:"rawData"`
	Confidence float64         `json:"confidence"`
}

// TextExtractor runs a text-mode extraction; satisfied by extract.Router.
type TextExtractor interface {
	Run(ctx context.Context, in extract.Input) extract.Outcome
}

// Entry codes are short uppercase alphanumeric tokens. Requiring a
// digit keeps single English words from classifying as codes.
var entryCodeRe = regexp.MustCompile(`^[A-Z0-9]{6,12}$`)

// Classifier pattern-matches decoded QR text in a fixed priority order
// so overlapping payload shapes resolve predictably.
type Classifier struct {
	extractor TextExtractor
}

// NewClassifier creates a Classifier. The extractor handles free-form
// payloads that match no structured pattern.
func NewClassifier(extractor TextExtractor) *Classifier {
	return &Classifier{extractor: extractor}
}

// Classify inspects a QR payload and produces either a short access
// code or a best-effort contact record.
func (c *Classifier) Classify(ctx context.Context, text string) Classification {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	switch {
	case entryCodeRe.MatchString(trimmed) && strings.ContainsAny(trimmed, "0123456789"):
		// Format match is exact, so confidence is always 1.0.
		return Classification{
			Kind:       domain.QRKindEntryCode,
			EntryCode:  trimmed,
			RawData:    text,
			Confidence: 1.0,
		}

	case strings.HasPrefix(lower, "mailto:"):
		addr := trimmed[len("mailto:"):]
		if idx := strings.IndexByte(addr, '?'); idx >= 0 {
			addr = addr[:idx]
		}
		rec := contact.Normalize(contact.Record{Emails: []string{addr}})
		return c.withRecord(domain.QRKindMailto, rec, text)

	case strings.HasPrefix(lower, "tel:"):
		rec := contact.Normalize(contact.Record{PhoneNumbers: []string{trimmed[len("tel:"):]}})
		return c.withRecord(domain.QRKindTel, rec, text)

	case strings.Contains(strings.ToUpper(trimmed), "BEGIN:VCARD"):
		rec := contact.Normalize(ParseVCard(trimmed))
		return c.withRecord(domain.QRKindVCard, rec, text)

	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		rec := contact.Normalize(contact.Record{Website: trimmed})
		return c.withRecord(domain.QRKindURL, rec, text)
	}

	// Free-form payload: text-mode extraction still yields a
	// best-effort contact record.
	out := Classification{Kind: domain.QRKindPlaintext, RawData: text}
	o := c.extractor.Run(ctx, extract.Input{Text: trimmed, Mode: domain.MethodText})
	if o.OK {
		rec := o.Record
		out.Record = &rec
		out.Confidence = o.Confidence
	} else {
		empty := contact.Empty()
		out.Record = &empty
	}
	return out
}

func (c *Classifier) withRecord(kind domain.QRKind, rec contact.Record, raw string) Classification {
	return Classification{
		Kind:       kind,
		Record:     &rec,
		RawData:    raw,
		Confidence: contact.Confidence(rec),
	}
}
