// Package media stores product images. The local backend writes under an uploads
// directory served by gin; S3 and Cloudinary keep images in object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const MaxImageSize = 5 << 20

var (
	ErrUnsupportedImage = errors.New("only image files are allowed")
	ErrImageTooLarge    = errors.New("image file too large (max 5MB)")
)

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// Stored describes an uploaded image: URL goes into the product, Key deletes it later.
type Stored struct {
	URL string
	Key string
}

type Storage interface {
	Save(ctx context.Context, file *multipart.FileHeader) (Stored, error)
	Delete(ctx context.Context, key string) error
}

// ValidateImage checks extension, declared content type and size before anything is
// written. It returns the lowercase extension.
func ValidateImage(file *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", fmt.Errorf("%w: image file extension is required", ErrUnsupportedImage)
	}
	if _, ok := allowedExtensions[extension]; !ok {
		return "", fmt.Errorf("%w: unsupported image type %s", ErrUnsupportedImage, extension)
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%w: content type %s", ErrUnsupportedImage, ct)
	}
	if file.Size > MaxImageSize {
		return "", ErrImageTooLarge
	}
	return extension, nil
}

func contentType(file *multipart.FileHeader, extension string) string {
	if ct := file.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
		return ct
	}
	return allowedExtensions[extension]
}

// objectName yields "image-<uuid><ext>", unique per upload.
func objectName(extension string) string {
	return "image-" + uuid.NewString() + extension
}
