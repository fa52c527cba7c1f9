package images_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscan/internal/domain"
	"leadscan/internal/images"
)

func jpegImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestSniffFormat(t *testing.T) {
	f, err := images.SniffFormat(jpegImage(t, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, domain.ImageJPEG, f)

	f, err = images.SniffFormat(pngImage(t, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, domain.ImagePNG, f)

	webp := append([]byte("RIFF"), 0, 0, 0, 0)
	webp = append(webp, []byte("WEBPVP8 ")...)
	f, err = images.SniffFormat(webp)
	require.NoError(t, err)
	assert.Equal(t, domain.ImageWebP, f)

	_, err = images.SniffFormat([]byte("GIF89a......"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedImageFormat)

	_, err = images.SniffFormat(nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedImageFormat)
}

func TestDecodeBase64_Plain(t *testing.T) {
	raw := jpegImage(t, 4, 4)
	payload := base64.StdEncoding.EncodeToString(raw)

	data, format, err := images.DecodeBase64(payload)

	require.NoError(t, err)
	assert.Equal(t, domain.ImageJPEG, format)
	assert.Equal(t, raw, data)
}

func TestDecodeBase64_DataURLPrefix(t *testing.T) {
	raw := pngImage(t, 4, 4)
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	data, format, err := images.DecodeBase64(payload)

	require.NoError(t, err)
	assert.Equal(t, domain.ImagePNG, format)
	assert.Equal(t, raw, data)
}

func TestDecodeBase64_InvalidBase64(t *testing.T) {
	_, _, err := images.DecodeBase64("not!!valid!!base64")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDecodeBase64_UnsupportedFormat(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("GIF89a not a supported format"))

	_, _, err := images.DecodeBase64(payload)

	assert.ErrorIs(t, err, domain.ErrUnsupportedImageFormat)
}

func TestDownscale_SmallImageUnchanged(t *testing.T) {
	raw := jpegImage(t, 100, 50)

	out, format, err := images.Downscale(raw, domain.ImageJPEG, 2048, 2048)

	require.NoError(t, err)
	assert.Equal(t, domain.ImageJPEG, format)
	assert.Equal(t, raw, out)
}

func TestDownscale_ShrinksOversized(t *testing.T) {
	raw := jpegImage(t, 400, 200)

	out, format, err := images.Downscale(raw, domain.ImageJPEG, 100, 100)

	require.NoError(t, err)
	assert.Equal(t, domain.ImageJPEG, format)
	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 100)
	assert.LessOrEqual(t, img.Bounds().Dy(), 100)
}

func TestDownscale_PreservesAspectRatio(t *testing.T) {
	raw := pngImage(t, 400, 100)

	out, format, err := images.Downscale(raw, domain.ImagePNG, 200, 200)

	require.NoError(t, err)
	assert.Equal(t, domain.ImagePNG, format)
	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestDownscale_ZeroBoundsPassthrough(t *testing.T) {
	raw := jpegImage(t, 400, 200)

	out, format, err := images.Downscale(raw, domain.ImageJPEG, 0, 0)

	require.NoError(t, err)
	assert.Equal(t, domain.ImageJPEG, format)
	assert.Equal(t, raw, out)
}

func TestDownscale_CorruptWebP(t *testing.T) {
	webp := append([]byte("RIFF"), 0, 0, 0, 0)
	webp = append(webp, []byte("WEBPVP8 ")...)

	_, _, err := images.Downscale(webp, domain.ImageWebP, 10, 10)

	assert.Error(t, err)
}
