// Package imagedata turns uploaded screenshots into model-ready image payloads.
package imagedata

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxImageSize is the default maximum image size (10MB)
const DefaultMaxImageSize = 10 * 1024 * 1024

var (
	ErrEmptyImage     = errors.New("image is empty")
	ErrNotAnImage     = errors.New("payload is not an image")
	ErrImageTooLarge  = errors.New("image too large")
	ErrInvalidDataURI = errors.New("invalid data URI")
)

// Image is a decoded screenshot.
type Image struct {
	Data     []byte
	MIMEType string
}

// FromBytes validates raw image bytes and detects their MIME type from content.
func FromBytes(data []byte, maxSize int64) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return Image{}, fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrImageTooLarge, len(data), maxSize)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotAnImage, mt.String())
	}
	return Image{Data: data, MIMEType: baseType(mt.String())}, nil
}

// ParseDataURI decodes "data:<mime>;base64,<payload>". The declared MIME type
// must be an image; the payload itself is sniffed as well.
func ParseDataURI(uri string, maxSize int64) (Image, error) {
	uri = strings.TrimSpace(uri)
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}
	declared, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return Image{}, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}
	if declared != "" && !strings.HasPrefix(declared, "image/") {
		return Image{}, fmt.Errorf("%w: declared %s", ErrNotAnImage, declared)
	}

	if maxSize > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxSize+2 {
		return Image{}, fmt.Errorf("%w: exceeds limit of %d bytes", ErrImageTooLarge, maxSize)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}

	img, err := FromBytes(data, maxSize)
	if err != nil {
		return Image{}, err
	}
	if declared != "" {
		img.MIMEType = baseType(declared)
	}
	return img, nil
}

// DataURI encodes the image as a base64 data URI.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

func baseType(mime string) string {
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.TrimSpace(strings.ToLower(mime))
}
