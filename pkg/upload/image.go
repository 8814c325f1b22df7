package upload

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxImageSize caps treatment images at 5MB.
	MaxImageSize = 5 * 1024 * 1024
)

var (
	ErrTooLarge      = fmt.Errorf("image file size cannot exceed %dMB", MaxImageSize/(1024*1024))
	ErrInvalidFormat = fmt.Errorf("invalid image format, allowed: JPEG, PNG, GIF, WebP")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore persists validated treatment images under a base directory and
// returns paths relative to it.
type ImageStore struct {
	baseDir string
}

func NewImageStore(baseDir string) *ImageStore {
	return &ImageStore{baseDir: baseDir}
}

// SaveMultipart validates and stores an uploaded file part.
func (s *ImageStore) SaveMultipart(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxImageSize {
		return "", ErrTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	return s.save(data)
}

// SaveDataURI validates and stores a base64 data URI
// ("data:image/png;base64,...."). A bare base64 payload is accepted too.
func (s *ImageStore) SaveDataURI(uri string) (string, error) {
	payload := uri
	if strings.HasPrefix(uri, "data:") {
		idx := strings.Index(uri, ",")
		if idx < 0 {
			return "", ErrInvalidFormat
		}
		payload = uri[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrInvalidFormat
	}
	return s.save(data)
}

func (s *ImageStore) save(data []byte) (string, error) {
	if len(data) > MaxImageSize {
		return "", ErrTooLarge
	}

	// Trust the bytes, not any declared content type.
	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", ErrInvalidFormat
	}

	if err := os.MkdirAll(filepath.Join(s.baseDir, "treatments"), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := filepath.Join("treatments", uuid.New().String()+ext)
	if err := os.WriteFile(filepath.Join(s.baseDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return name, nil
}
