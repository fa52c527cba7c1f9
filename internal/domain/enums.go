package domain

// ExtractionMethod identifies which pipeline path produced a record.
type ExtractionMethod string

const (
	MethodVision ExtractionMethod = "vision"
	MethodText   ExtractionMethod = "text"
)

// ProcessingMethod returns the external API name for the method,
// as reported in scan responses.
func (m ExtractionMethod) ProcessingMethod() string {
	if m == MethodText {
		return "ocr_text_analysis"
	}
	return "image_vision_api"
}

// ImageFormat represents the accepted raster formats for card scans.
type ImageFormat string

const (
	ImageJPEG ImageFormat = "jpeg"
	ImagePNG  ImageFormat = "png"
	ImageWebP ImageFormat = "webp"
)

// ContentType returns the MIME content type for the format.
func (f ImageFormat) ContentType() string {
	return "image/" + string(f)
}

// QRKind classifies a decoded QR payload.
type QRKind string

const (
	QRKindEntryCode QRKind = "entry_code"
	QRKindURL       QRKind = "url"
	QRKindVCard     QRKind = "vcard"
	QRKindMailto    QRKind = "mailto"
	QRKindTel       QRKind = "tel"
	QRKindPlaintext QRKind = "plaintext"
)

// DiffStatus is the per-field outcome of comparing a stored record
// against a freshly extracted one.
type DiffStatus string

const (
	DiffMatch          DiffStatus = "match"
	DiffDifferent      DiffStatus = "different"
	DiffMissingInStore DiffStatus = "missing_in_store"
	DiffOnlyInStore    DiffStatus = "only_in_store"
	DiffBothEmpty      DiffStatus = "both_empty"
)
