package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/fitly/fashion-ai/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImageBytes(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func TestDetectMimeTypeSniffsContent(t *testing.T) {
	data := testImageBytes(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) })
	assert.Equal(t, "image/png", DetectMimeType("misnamed.jpg", data))
}

func TestDetectMimeTypeFallsBackToExtension(t *testing.T) {
	assert.Equal(t, "image/webp", DetectMimeType("photo.WEBP", []byte("not sniffable")))
}

func TestNormalizeKeepsJPEG(t *testing.T) {
	data := testImageBytes(t, func(b *bytes.Buffer, i image.Image) error {
		return jpeg.Encode(b, i, nil)
	})
	img := models.UploadedImage{Filename: "a.jpg", Data: data}

	require.NoError(t, NormalizeForModel(&img))
	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.Equal(t, data, img.Data)
}

func TestNormalizeKeepsPNG(t *testing.T) {
	data := testImageBytes(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) })
	img := models.UploadedImage{Filename: "a.png", Data: data}

	require.NoError(t, NormalizeForModel(&img))
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, data, img.Data)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	img := models.UploadedImage{Filename: "a.webp", Data: []byte("definitely not an image")}
	assert.Error(t, NormalizeForModel(&img))
}

func TestToJPEGFromPNG(t *testing.T) {
	data := testImageBytes(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) })

	out, err := ToJPEG(data)
	require.NoError(t, err)

	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 8, 8), decoded.Bounds())
}
