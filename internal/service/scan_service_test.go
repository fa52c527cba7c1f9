package service_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"leadscan/internal/config"
	"leadscan/internal/contact"
	"leadscan/internal/domain"
	"leadscan/internal/drift"
	"leadscan/internal/extract"
	"leadscan/internal/port"
	"leadscan/internal/qr"
	"leadscan/internal/service"
	"leadscan/mocks"
)

func testScanCfg() config.ScanConfig {
	return config.ScanConfig{MaxImages: 3, MaxImageMB: 10, MaxImageWidth: 2048, MaxImageHeight: 2048}
}

func base64JPEG(t *testing.T) string {
	t.Helper()
	img := imaging.New(8, 8, color.NRGBA{R: 250, G: 250, B: 250, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func okOutcome(method domain.ExtractionMethod) extract.Outcome {
	return extract.Outcome{
		OK:         true,
		Record:     contact.Record{FirstName: "Jane", Company: "Acme", Emails: []string{"jane@acme.com"}, PhoneNumbers: []string{}},
		RawText:    "JANE DOE\nACME CORP",
		Confidence: 0.3,
		Method:     method,
	}
}

func newService(ext *mocks.MockExtractor, rescanner service.Rescanner, leads port.LeadRepository, storage port.ObjectStorage) service.ScanService {
	return service.NewScanService(
		ext,
		qr.NewClassifier(ext),
		rescanner,
		leads,
		storage,
		testScanCfg(),
		config.S3Config{Bucket: "cards"},
	)
}

func TestScanCard_SingleImage(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("Run", mock.Anything, mock.MatchedBy(func(in extract.Input) bool {
		return in.Mode == domain.MethodVision && in.ContentType == "image/jpeg" && len(in.ImageBytes) > 0
	})).Return(okOutcome(domain.MethodVision))

	svc := newService(ext, nil, nil, nil)
	out, err := svc.ScanCard(context.Background(), service.ScanCardInput{Image: base64JPEG(t)})

	require.NoError(t, err)
	assert.Equal(t, "Jane", out.Details.FirstName)
	assert.Equal(t, "image_vision_api", out.ProcessingMethod)
	assert.Equal(t, "JANE DOE\nACME CORP", out.OCRText)
	assert.Nil(t, out.LeadID)
	ext.AssertNotCalled(t, "RunImages", mock.Anything, mock.Anything)
}

func TestScanCard_MultipleImages(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("RunImages", mock.Anything, mock.MatchedBy(func(inputs []extract.Input) bool {
		return len(inputs) == 2
	})).Return(okOutcome(domain.MethodVision))

	svc := newService(ext, nil, nil, nil)
	out, err := svc.ScanCard(context.Background(), service.ScanCardInput{
		Images: []string{base64JPEG(t), base64JPEG(t)},
	})

	require.NoError(t, err)
	assert.Equal(t, "Jane", out.Details.FirstName)
}

func TestScanCard_CapsAtMaxImages(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("RunImages", mock.Anything, mock.MatchedBy(func(inputs []extract.Input) bool {
		return len(inputs) == 3
	})).Return(okOutcome(domain.MethodVision))

	img := base64JPEG(t)
	svc := newService(ext, nil, nil, nil)
	_, err := svc.ScanCard(context.Background(), service.ScanCardInput{
		Images: []string{img, img, img, img},
	})

	require.NoError(t, err)
}

func TestScanCard_OCRTextOnly(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("Run", mock.Anything, mock.MatchedBy(func(in extract.Input) bool {
		return in.Mode == domain.MethodText && in.Text == "JANE DOE"
	})).Return(okOutcome(domain.MethodText))

	svc := newService(ext, nil, nil, nil)
	out, err := svc.ScanCard(context.Background(), service.ScanCardInput{OCRText: "JANE DOE"})

	require.NoError(t, err)
	assert.Equal(t, "ocr_text_analysis", out.ProcessingMethod)
}

func TestScanCard_FrontAndBackText(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("Run", mock.Anything, mock.MatchedBy(func(in extract.Input) bool {
		return in.Text == "FRONT TEXT\n\n--- BACK ---\n\nBACK TEXT"
	})).Return(okOutcome(domain.MethodText))

	svc := newService(ext, nil, nil, nil)
	_, err := svc.ScanCard(context.Background(), service.ScanCardInput{
		FrontOCRText: " FRONT TEXT ",
		BackOCRText:  "BACK TEXT",
	})

	require.NoError(t, err)
}

func TestScanCard_NoInput(t *testing.T) {
	svc := newService(new(mocks.MockExtractor), nil, nil, nil)

	_, err := svc.ScanCard(context.Background(), service.ScanCardInput{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScanCard_InvalidBase64(t *testing.T) {
	svc := newService(new(mocks.MockExtractor), nil, nil, nil)

	_, err := svc.ScanCard(context.Background(), service.ScanCardInput{Image: "!!not-base64!!"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScanCard_ExtractionFailurePropagates(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("Run", mock.Anything, mock.Anything).Return(extract.Outcome{Err: domain.ErrAllProvidersFailed})

	svc := newService(ext, nil, nil, nil)
	_, err := svc.ScanCard(context.Background(), service.ScanCardInput{OCRText: "x"})

	assert.ErrorIs(t, err, domain.ErrAllProvidersFailed)
}

func TestScanCard_SavePersistsLeadAndUploadsImages(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("Run", mock.Anything, mock.Anything).Return(okOutcome(domain.MethodVision))

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "cards" && in.ContentType == "image/jpeg"
	})).Return(&port.UploadOutput{Location: "https://cards.s3/leads/x/card-1.jpeg"}, nil)

	leads := new(mocks.MockLeadRepo)
	leads.On("Create", mock.Anything, mock.MatchedBy(func(lead *domain.Lead) bool {
		// Leads reference object keys, not bucket URLs.
		return len(lead.ImageURLs) == 1 &&
			strings.HasPrefix(lead.ImageURLs[0], "leads/") &&
			strings.HasSuffix(lead.ImageURLs[0], "/card-1.jpeg") &&
			lead.Confidence == 0.3 && len(lead.Details) > 0
	})).Return(nil)

	svc := newService(ext, nil, leads, storage)
	out, err := svc.ScanCard(context.Background(), service.ScanCardInput{
		Image: base64JPEG(t),
		Save:  true,
	})

	require.NoError(t, err)
	require.NotNil(t, out.LeadID)
	leads.AssertExpectations(t)
	storage.AssertExpectations(t)
	storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestScanCard_SaveUploadFails(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("Run", mock.Anything, mock.Anything).Return(okOutcome(domain.MethodVision))

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("s3 down"))

	leads := new(mocks.MockLeadRepo)

	svc := newService(ext, nil, leads, storage)
	_, err := svc.ScanCard(context.Background(), service.ScanCardInput{
		Image: base64JPEG(t),
		Save:  true,
	})

	assert.Error(t, err)
	leads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestScanCard_SaveSecondUploadFailsDeletesFirst(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("RunImages", mock.Anything, mock.Anything).Return(okOutcome(domain.MethodVision))

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return strings.HasSuffix(in.Key, "/card-1.jpeg")
	})).Return(&port.UploadOutput{}, nil)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return strings.HasSuffix(in.Key, "/card-2.jpeg")
	})).Return(nil, errors.New("s3 down"))
	storage.On("Delete", mock.Anything, "cards", mock.MatchedBy(func(key string) bool {
		return strings.HasSuffix(key, "/card-1.jpeg")
	})).Return(nil)

	leads := new(mocks.MockLeadRepo)

	svc := newService(ext, nil, leads, storage)
	_, err := svc.ScanCard(context.Background(), service.ScanCardInput{
		Images: []string{base64JPEG(t), base64JPEG(t)},
		Save:   true,
	})

	assert.Error(t, err)
	leads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	storage.AssertExpectations(t)
}

func TestScanCard_SaveCreateFailsDeletesUploads(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("Run", mock.Anything, mock.Anything).Return(okOutcome(domain.MethodVision))

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	storage.On("Delete", mock.Anything, "cards", mock.MatchedBy(func(key string) bool {
		return strings.HasSuffix(key, "/card-1.jpeg")
	})).Return(nil)

	leads := new(mocks.MockLeadRepo)
	leads.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc := newService(ext, nil, leads, storage)
	_, err := svc.ScanCard(context.Background(), service.ScanCardInput{
		Image: base64JPEG(t),
		Save:  true,
	})

	assert.Error(t, err)
	storage.AssertExpectations(t)
}

func TestScanCard_RecordsModelUsed(t *testing.T) {
	outcome := okOutcome(domain.MethodVision)
	outcome.ModelUsed = "gpt-4o"

	ext := new(mocks.MockExtractor)
	ext.On("Run", mock.Anything, mock.Anything).Return(outcome)

	leads := new(mocks.MockLeadRepo)
	leads.On("Create", mock.Anything, mock.MatchedBy(func(lead *domain.Lead) bool {
		return lead.ModelUsed == "gpt-4o"
	})).Return(nil)

	svc := newService(ext, nil, leads, nil)
	out, err := svc.ScanCard(context.Background(), service.ScanCardInput{
		Image: base64JPEG(t),
		Save:  true,
	})

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", out.ModelUsed)
	leads.AssertExpectations(t)
}

func TestScanQR_EmptyInput(t *testing.T) {
	svc := newService(new(mocks.MockExtractor), nil, nil, nil)

	_, err := svc.ScanQR(context.Background(), "   ")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScanQR_EntryCode(t *testing.T) {
	svc := newService(new(mocks.MockExtractor), nil, nil, nil)

	out, err := svc.ScanQR(context.Background(), "EXPO2024")

	require.NoError(t, err)
	assert.Equal(t, domain.QRKindEntryCode, out.Kind)
	assert.Equal(t, "EXPO2024", out.EntryCode)
}

func TestRescanLead_MarksAudited(t *testing.T) {
	id := uuid.New()
	lead := &domain.Lead{ID: id, ImageURLs: domain.StringList{"https://x/1.jpg"}}

	leads := new(mocks.MockLeadRepo)
	leads.On("GetByID", mock.Anything, id).Return(lead, nil)
	leads.On("MarkAudited", mock.Anything, id, mock.Anything).Return(nil)

	rescanner := new(mocks.MockRescanner)
	rescanner.On("Rescan", mock.Anything, lead).Return(&drift.Report{LeadID: id}, nil)

	svc := newService(new(mocks.MockExtractor), rescanner, leads, nil)
	report, err := svc.RescanLead(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, report.LeadID)
	leads.AssertExpectations(t)
}

func TestRescanLead_NotFound(t *testing.T) {
	id := uuid.New()

	leads := new(mocks.MockLeadRepo)
	leads.On("GetByID", mock.Anything, id).Return(nil, domain.ErrLeadNotFound)

	svc := newService(new(mocks.MockExtractor), new(mocks.MockRescanner), leads, nil)
	_, err := svc.RescanLead(context.Background(), id)

	assert.ErrorIs(t, err, domain.ErrLeadNotFound)
}

func TestRescanLead_RescanFailureSkipsAudit(t *testing.T) {
	id := uuid.New()
	lead := &domain.Lead{ID: id}

	leads := new(mocks.MockLeadRepo)
	leads.On("GetByID", mock.Anything, id).Return(lead, nil)

	rescanner := new(mocks.MockRescanner)
	rescanner.On("Rescan", mock.Anything, lead).Return(nil, domain.ErrNoStoredImages)

	svc := newService(new(mocks.MockExtractor), rescanner, leads, nil)
	_, err := svc.RescanLead(context.Background(), id)

	assert.ErrorIs(t, err, domain.ErrNoStoredImages)
	leads.AssertNotCalled(t, "MarkAudited", mock.Anything, mock.Anything, mock.Anything)
}
