package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadscan/internal/config"
	"leadscan/internal/contact"
	"leadscan/internal/domain"
	"leadscan/internal/drift"
	"leadscan/internal/extract"
	"leadscan/internal/images"
	"leadscan/internal/port"
	"leadscan/internal/qr"
)

// backSeparator joins front and back OCR text before analysis.
const backSeparator = "\n\n--- BACK ---\n\n"

// ScanCardInput is one inbound card scan request: a base64 image, a
// set of images of the same card, or pre-extracted text.
type ScanCardInput struct {
	Image        string
	Images       []string
	OCRText      string
	FrontOCRText string
	BackOCRText  string
	Save         bool
}

// ScanCardOutput mirrors the external scan response data contract.
type ScanCardOutput struct {
	OCRText          string         `json:"ocrText"`
	Details          contact.Record `json:"details"`
	Confidence       float64        `json:"confidence"`
	ProcessingMethod string         `json:"processingMethod"`
	ModelUsed        string         `json:"modelUsed,omitempty"`
	LeadID           *uuid.UUID     `json:"leadId,omitempty"`
}

// CardExtractor is the extraction router surface the service needs.
type CardExtractor interface {
	Run(ctx context.Context, in extract.Input) extract.Outcome
	RunImages(ctx context.Context, inputs []extract.Input) extract.Outcome
}

// Rescanner is the drift audit surface the service needs.
type Rescanner interface {
	Rescan(ctx context.Context, lead *domain.Lead) (*drift.Report, error)
}

// ScanService orchestrates the extraction pipeline for inbound scans.
type ScanService interface {
	ScanCard(ctx context.Context, in ScanCardInput) (*ScanCardOutput, error)
	ScanQR(ctx context.Context, qrText string) (*qr.Classification, error)
	RescanLead(ctx context.Context, id uuid.UUID) (*drift.Report, error)
}

type scanService struct {
	extractor  CardExtractor
	classifier *qr.Classifier
	rescanner  Rescanner
	leads      port.LeadRepository
	storage    port.ObjectStorage
	scanCfg    config.ScanConfig
	s3Cfg      config.S3Config
}

// NewScanService creates a ScanService. leads and storage may be nil,
// in which case scans are never persisted.
func NewScanService(
	extractor CardExtractor,
	classifier *qr.Classifier,
	rescanner Rescanner,
	leads port.LeadRepository,
	storage port.ObjectStorage,
	scanCfg config.ScanConfig,
	s3Cfg config.S3Config,
) ScanService {
	return &scanService{
		extractor:  extractor,
		classifier: classifier,
		rescanner:  rescanner,
		leads:      leads,
		storage:    storage,
		scanCfg:    scanCfg,
		s3Cfg:      s3Cfg,
	}
}

func (s *scanService) ScanCard(ctx context.Context, in ScanCardInput) (*ScanCardOutput, error) {
	payloads := in.Images
	if in.Image != "" {
		payloads = []string{in.Image}
	}

	var outcome extract.Outcome
	var decoded []decodedImage

	switch {
	case len(payloads) > 0:
		var err error
		decoded, err = s.decodeImages(payloads)
		if err != nil {
			return nil, err
		}
		inputs := make([]extract.Input, 0, len(decoded))
		for _, img := range decoded {
			inputs = append(inputs, extract.Input{
				ImageBytes:  img.data,
				ContentType: img.format.ContentType(),
				Mode:        domain.MethodVision,
			})
		}
		if len(inputs) == 1 {
			outcome = s.extractor.Run(ctx, inputs[0])
		} else {
			outcome = s.extractor.RunImages(ctx, inputs)
		}

	default:
		text := s.combineText(in)
		if text == "" {
			return nil, domain.ErrInvalidInput
		}
		outcome = s.extractor.Run(ctx, extract.Input{Text: text, Mode: domain.MethodText})
	}

	if !outcome.OK {
		return nil, outcome.Err
	}

	out := &ScanCardOutput{
		OCRText:          outcome.RawText,
		Details:          outcome.Record,
		Confidence:       outcome.Confidence,
		ProcessingMethod: outcome.Method.ProcessingMethod(),
		ModelUsed:        outcome.ModelUsed,
	}

	if in.Save && s.leads != nil {
		lead, err := s.persistLead(ctx, out, decoded)
		if err != nil {
			return nil, err
		}
		out.LeadID = &lead.ID
	}

	return out, nil
}

func (s *scanService) ScanQR(ctx context.Context, qrText string) (*qr.Classification, error) {
	if strings.TrimSpace(qrText) == "" {
		return nil, domain.ErrInvalidInput
	}
	c := s.classifier.Classify(ctx, qrText)
	return &c, nil
}

func (s *scanService) RescanLead(ctx context.Context, id uuid.UUID) (*drift.Report, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	report, err := s.rescanner.Rescan(ctx, lead)
	if err != nil {
		return nil, err
	}

	if err := s.leads.MarkAudited(ctx, id, time.Now().UTC()); err != nil {
		log.Printf("scanService: marking lead %s audited: %v", id, err)
	}
	return report, nil
}

type decodedImage struct {
	data   []byte
	format domain.ImageFormat
}

func (s *scanService) decodeImages(payloads []string) ([]decodedImage, error) {
	maxImages := s.scanCfg.MaxImages
	if maxImages <= 0 {
		maxImages = 3
	}
	if len(payloads) > maxImages {
		payloads = payloads[:maxImages]
	}

	maxBytes := s.scanCfg.MaxImageMB << 20

	out := make([]decodedImage, 0, len(payloads))
	for _, payload := range payloads {
		data, format, err := images.DecodeBase64(payload)
		if err != nil {
			return nil, err
		}
		if maxBytes > 0 && int64(len(data)) > maxBytes {
			return nil, fmt.Errorf("%w: image exceeds %dMB limit", domain.ErrInvalidInput, s.scanCfg.MaxImageMB)
		}
		resized, outFormat, err := images.Downscale(data, format, s.scanCfg.MaxImageWidth, s.scanCfg.MaxImageHeight)
		if err != nil {
			// A corrupt-but-sniffable image still goes to the provider as-is.
			log.Printf("scanService: downscale failed, sending original: %v", err)
			resized, outFormat = data, format
		}
		out = append(out, decodedImage{data: resized, format: outFormat})
	}
	return out, nil
}

func (s *scanService) combineText(in ScanCardInput) string {
	if text := strings.TrimSpace(in.OCRText); text != "" {
		return text
	}
	front := strings.TrimSpace(in.FrontOCRText)
	back := strings.TrimSpace(in.BackOCRText)
	switch {
	case front != "" && back != "":
		return front + backSeparator + back
	case front != "":
		return front
	case back != "":
		return back
	}
	return ""
}

func (s *scanService) persistLead(ctx context.Context, out *ScanCardOutput, imgs []decodedImage) (*domain.Lead, error) {
	details, err := json.Marshal(out.Details)
	if err != nil {
		return nil, fmt.Errorf("marshaling details: %w", err)
	}

	lead := &domain.Lead{
		ID:               uuid.New(),
		Details:          details,
		OCRText:          out.OCRText,
		Confidence:       out.Confidence,
		ProcessingMethod: out.ProcessingMethod,
		ModelUsed:        out.ModelUsed,
		ImageURLs:        domain.StringList{},
	}

	// Leads store object keys, not raw bucket URLs; readers presign at
	// fetch time so the bucket can stay private.
	if s.storage != nil {
		for i, img := range imgs {
			key := fmt.Sprintf("leads/%s/card-%d.%s", lead.ID, i+1, img.format)
			_, err := s.storage.Upload(ctx, port.UploadInput{
				Bucket:      s.s3Cfg.Bucket,
				Key:         key,
				Body:        bytes.NewReader(img.data),
				ContentType: img.format.ContentType(),
				Size:        int64(len(img.data)),
			})
			if err != nil {
				s.deleteUploaded(ctx, lead.ImageURLs)
				return nil, fmt.Errorf("uploading card image: %w", err)
			}
			lead.ImageURLs = append(lead.ImageURLs, key)
		}
	}

	if err := s.leads.Create(ctx, lead); err != nil {
		s.deleteUploaded(ctx, lead.ImageURLs)
		return nil, err
	}
	return lead, nil
}

// deleteUploaded removes objects left behind by a failed persist.
// Best effort: failures are logged, never escalated.
func (s *scanService) deleteUploaded(ctx context.Context, keys domain.StringList) {
	if s.storage == nil {
		return
	}
	for _, key := range keys {
		if err := s.storage.Delete(ctx, s.s3Cfg.Bucket, key); err != nil {
			log.Printf("scanService: deleting orphaned object %s: %v", key, err)
		}
	}
}
