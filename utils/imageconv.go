package utils

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/fitly/fashion-ai/models"
	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
)

// DetectMimeType sniffs the image content, falling back to the filename
// extension when sniffing yields a generic type.
func DetectMimeType(filename string, data []byte) string {
	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "image/") {
		return mime
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	}
	return mime
}

// NormalizeForModel makes an uploaded image safe to hand to the vision and
// generation models. JPEG and PNG pass through unchanged; WEBP and anything
// else decodable is re-encoded as JPEG.
func NormalizeForModel(img *models.UploadedImage) error {
	if img.MimeType == "" {
		img.MimeType = DetectMimeType(img.Filename, img.Data)
	}

	switch img.MimeType {
	case "image/jpeg", "image/png":
		return nil
	}

	converted, err := ToJPEG(img.Data)
	if err != nil {
		return fmt.Errorf("cannot convert %s (%s) to jpeg: %v", img.Filename, img.MimeType, err)
	}
	img.Data = converted
	img.MimeType = "image/jpeg"
	return nil
}

// ToJPEG re-encodes any supported image format as JPEG.
func ToJPEG(data []byte) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeImage(data []byte) (image.Image, error) {
	if isWEBP(data) {
		return webp.Decode(bytes.NewReader(data), &decoder.Options{})
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func isWEBP(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	return string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}
