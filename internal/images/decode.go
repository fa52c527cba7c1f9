package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"

	"leadscan/internal/domain"
)

// DecodeBase64 decodes a base64 card image, tolerating an optional
// data:image/<fmt>;base64, prefix, and sniffs its format from the
// magic bytes. Only jpeg, png, and webp are accepted.
func DecodeBase64(payload string) ([]byte, domain.ImageFormat, error) {
	payload = strings.TrimSpace(payload)
	if idx := strings.Index(payload, "base64,"); strings.HasPrefix(payload, "data:") && idx >= 0 {
		payload = payload[idx+len("base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid base64 image", domain.ErrInvalidInput)
	}

	format, err := SniffFormat(data)
	if err != nil {
		return nil, "", err
	}
	return data, format, nil
}

// SniffFormat detects the raster format from magic bytes.
func SniffFormat(data []byte) (domain.ImageFormat, error) {
	switch {
	case len(data) > 2 && data[0] == 0xFF && data[1] == 0xD8:
		return domain.ImageJPEG, nil
	case len(data) > 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return domain.ImagePNG, nil
	case len(data) > 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return domain.ImageWebP, nil
	default:
		return "", domain.ErrUnsupportedImageFormat
	}
}

// Downscale re-encodes an image so neither dimension exceeds the given
// bounds; oversized card photos waste provider tokens. Already-small
// images are returned unchanged. WebP has no Go encoder, so a resized
// WebP comes back as JPEG and the returned format reflects that.
func Downscale(data []byte, format domain.ImageFormat, maxWidth, maxHeight int) ([]byte, domain.ImageFormat, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return data, format, nil
	}

	var img image.Image
	var err error
	if format == domain.ImageWebP {
		img, err = webp.Decode(bytes.NewReader(data))
	} else {
		img, err = imaging.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth && bounds.Dy() <= maxHeight {
		return data, format, nil
	}

	outFormat := format
	if outFormat == domain.ImageWebP {
		outFormat = domain.ImageJPEG
	}
	resized := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	out, err := encode(resized, outFormat)
	if err != nil {
		return nil, "", err
	}
	return out, outFormat, nil
}

func encode(img image.Image, format domain.ImageFormat) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case domain.ImagePNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90))
	}
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}
