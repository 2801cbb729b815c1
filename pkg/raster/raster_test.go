package raster

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gardar/ocrbridge/pkg/ocrbridge"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		path string
		ext  string
		ok   bool
	}{
		{"scan.png", ".png", true},
		{"SCAN.JPG", ".jpg", true},
		{"a/b/c.Jpeg", ".jpeg", true},
		{"doc.pdf", ".pdf", true},
		{"fax.TIF", ".tif", true},
		{"fax.tiff", ".tiff", true},
		{"photo.gif", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		ext, err := ValidateFormat(tt.path)
		if tt.ok {
			if err != nil || ext != tt.ext {
				t.Errorf("ValidateFormat(%q) = %q, %v; want %q", tt.path, ext, err, tt.ext)
			}
			continue
		}
		if !errors.Is(err, ocrbridge.ErrUnsupportedFormat) {
			t.Errorf("ValidateFormat(%q) error = %v, want ErrUnsupportedFormat", tt.path, err)
		}
	}
}

func TestRenderImageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, 40, 30)

	doc, err := NewPoppler(zerolog.Nop()).Render(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	defer doc.Close()

	if len(doc.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(doc.Images))
	}
	img := doc.Images[0]
	if img.Page != 1 || img.Width != 40 || img.Height != 30 || img.Format != "png" {
		t.Errorf("image = %+v", img)
	}
	if img.Name() != "scan.png" {
		t.Errorf("Name() = %q", img.Name())
	}
	data, err := img.Bytes()
	if err != nil || len(data) == 0 {
		t.Errorf("Bytes() = %d bytes, %v", len(data), err)
	}
}

func TestRenderRejectsUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewPoppler(zerolog.Nop()).Render(context.Background(), path, 300)
	if !errors.Is(err, ocrbridge.ErrUnsupportedFormat) {
		t.Errorf("Render error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRenderMissingFile(t *testing.T) {
	_, err := NewPoppler(zerolog.Nop()).Render(context.Background(), filepath.Join(t.TempDir(), "missing.png"), 300)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Render error = %v, want os.ErrNotExist", err)
	}
}

func TestCollectPagesOrdersByPageNumber(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page-10.png", "page-02.png", "page-1.png"} {
		writePNG(t, filepath.Join(dir, name), 8, 6)
	}
	if err := os.WriteFile(filepath.Join(dir, "stray.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	images, err := collectPages(dir)
	if err != nil {
		t.Fatalf("collectPages: %v", err)
	}
	var pages []int
	for _, img := range images {
		pages = append(pages, img.Page)
	}
	if len(pages) != 3 || pages[0] != 1 || pages[1] != 2 || pages[2] != 10 {
		t.Errorf("pages = %v, want [1 2 10]", pages)
	}
}

func TestDocumentCloseRemovesPages(t *testing.T) {
	dir, err := os.MkdirTemp(t.TempDir(), "pages")
	if err != nil {
		t.Fatal(err)
	}
	doc := &Document{tempDir: dir}
	if err := doc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("page directory still exists: %v", err)
	}
	if err := doc.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
