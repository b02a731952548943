package parser

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore persists extracted document images under a publicly served
// directory and hands back their URLs.
type ImageStore struct {
	dir     string
	baseURL string
}

// NewImageStore creates a store writing into dir. URLs are formed by joining
// baseURL (e.g. "/uploads/images") with the generated filename.
func NewImageStore(dir, baseURL string) *ImageStore {
	return &ImageStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Materialize writes image bytes under a unique filename and returns the
// public URL. The extension comes from the MIME subtype, defaulting to png.
// A failed write is logged and returns an empty URL: one bad image must not
// abort the whole document, the affected question just loses its image.
func (s *ImageStore) Materialize(data []byte, contentType string) string {
	ext := "png"
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		ext = sub
	}
	name := uuid.NewString() + "." + ext

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		slog.Error("create images directory", "dir", s.dir, "error", err)
		return ""
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		slog.Error("write extracted image", "name", name, "error", err)
		return ""
	}
	return s.baseURL + "/" + name
}
