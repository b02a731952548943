package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMaterialize(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	s := NewImageStore(dir, "/uploads/images")

	url := s.Materialize([]byte("fake-png-bytes"), "image/png")
	if !strings.HasPrefix(url, "/uploads/images/") {
		t.Fatalf("url = %q, want /uploads/images/ prefix", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q, want .png extension", url)
	}

	name := strings.TrimPrefix(url, "/uploads/images/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read materialized file: %v", err)
	}
	if string(data) != "fake-png-bytes" {
		t.Errorf("file content = %q", data)
	}
}

func TestMaterializeExtensionFromMIME(t *testing.T) {
	s := NewImageStore(t.TempDir(), "/uploads/images")

	tests := []struct {
		contentType string
		wantExt     string
	}{
		{"image/jpeg", ".jpeg"},
		{"image/gif", ".gif"},
		{"", ".png"}, // default when MIME is absent
	}
	for _, tt := range tests {
		url := s.Materialize([]byte("x"), tt.contentType)
		if !strings.HasSuffix(url, tt.wantExt) {
			t.Errorf("Materialize(%q) = %q, want %s extension", tt.contentType, url, tt.wantExt)
		}
	}
}

func TestMaterializeUniqueNames(t *testing.T) {
	s := NewImageStore(t.TempDir(), "/uploads/images")
	a := s.Materialize([]byte("a"), "image/png")
	b := s.Materialize([]byte("b"), "image/png")
	if a == b {
		t.Errorf("two materialized images share the same URL %q", a)
	}
}

// A write failure must not abort the document: the store logs and returns an
// empty URL instead.
func TestMaterializeWriteFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("occupied"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewImageStore(file, "/uploads/images")

	if url := s.Materialize([]byte("x"), "image/png"); url != "" {
		t.Errorf("url = %q, want empty on write failure", url)
	}
}
