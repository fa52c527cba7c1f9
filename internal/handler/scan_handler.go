package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadscan/internal/contact"
	"leadscan/internal/domain"
	"leadscan/internal/service"
)

type ScanHandler struct {
	scanSvc service.ScanService
}

func NewScanHandler(scanSvc service.ScanService) *ScanHandler {
	return &ScanHandler{scanSvc: scanSvc}
}

type scanCardRequest struct {
	Image        string   `json:"image"`
	Images       []string `json:"images"`
	OCRText      string   `json:"ocrText"`
	FrontOCRText string   `json:"frontOcrText"`
	BackOCRText  string   `json:"backOcrText"`
	Save         bool     `json:"save"`
}

// ScanCard handles POST /api/v1/scan. Accepts base64 card images and/or
// pre-extracted OCR text and returns the structured contact details.
func (h *ScanHandler) ScanCard(c *gin.Context) {
	var req scanCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	images := req.Images
	if len(images) == 0 && req.Image != "" {
		images = []string{req.Image}
	}

	out, err := h.scanSvc.ScanCard(c.Request.Context(), service.ScanCardInput{
		Images:       images,
		OCRText:      req.OCRText,
		FrontOCRText: req.FrontOCRText,
		BackOCRText:  req.BackOCRText,
		Save:         req.Save,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, out)
}

type scanQRRequest struct {
	QRText string `json:"qrText" binding:"required"`
}

type scanQRData struct {
	Details    *contact.Record `json:"details,omitempty"`
	EntryCode  string          `json:"entryCode,omitempty"`
	RawData    string          `json:"rawData"`
	Confidence float64         `json:"confidence"`
}

type scanQRResponse struct {
	Success  bool       `json:"success"`
	Type     string     `json:"type"`
	LeadType string     `json:"leadType"`
	Data     scanQRData `json:"data"`
}

// ScanQR handles POST /api/v1/scan/qr. Classifies a decoded QR payload
// and returns either an event entry code or structured contact details.
func (h *ScanHandler) ScanQR(c *gin.Context) {
	var req scanQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "qrText is required")
		return
	}

	cls, err := h.scanSvc.ScanQR(c.Request.Context(), req.QRText)
	if err != nil {
		HandleError(c, err)
		return
	}

	leadType := "contact"
	if cls.Kind == domain.QRKindEntryCode {
		leadType = "entry_code"
	}

	c.JSON(http.StatusOK, scanQRResponse{
		Success:  true,
		Type:     string(cls.Kind),
		LeadType: leadType,
		Data: scanQRData{
			Details:    cls.Record,
			EntryCode:  cls.EntryCode,
			RawData:    cls.RawData,
			Confidence: cls.Confidence,
		},
	})
}
