package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

var (
	ErrFileTooLarge       = errors.New("file too large")
	ErrContentTypeBlocked = errors.New("content type not allowed")
	ErrUndecodableImage   = errors.New("file is not a readable image")
)

// AllowedImageTypes are accepted for reference images and reference examples.
var AllowedImageTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

// AllowedBrandingTypes additionally accepts PDF brand guides.
var AllowedBrandingTypes = append(append([]string{}, AllowedImageTypes...), "application/pdf")

// ValidateFileSize validates the file size
func ValidateFileSize(size int64, maxSize int64) error {
	if size > maxSize {
		return fmt.Errorf("%w: maximum allowed size is %d bytes", ErrFileTooLarge, maxSize)
	}
	return nil
}

// ValidateContentType validates the content type
func ValidateContentType(contentType string, allowedTypes []string) error {
	for _, allowed := range allowedTypes {
		if contentType == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrContentTypeBlocked, contentType)
}

// InspectImage decodes data and returns its dimensions. WebP and PDF are not decodable
// by imaging and are passed through with zero dimensions.
func InspectImage(contentType string, data []byte) (width, height int, err error) {
	switch contentType {
	case "image/webp", "application/pdf":
		return 0, 0, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}
