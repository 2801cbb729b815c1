// Package raster turns input files into page images that OCR engines can read.
//
// Image files (PNG, JPEG, TIFF) are passed through as a single page; only
// their pixel dimensions are decoded. PDFs are rendered page by page with
// poppler's pdftoppm into a temporary directory that lives until the
// returned Document is closed.
package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gardar/ocrbridge/pkg/ocrbridge"
)

// DefaultDPI is the resolution PDFs are rendered at when none is given.
const DefaultDPI = 300

// SupportedExtensions lists the accepted input file extensions.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".pdf", ".tiff", ".tif"}

// Image is one rasterized page.
type Image struct {
	Page   int    // 1-based page number within the source
	Path   string // file the engine should read
	Width  int    // pixels
	Height int    // pixels
	Format string // "png", "jpeg" or "tiff"
}

// Bytes reads the image file.
func (i Image) Bytes() ([]byte, error) {
	data, err := os.ReadFile(i.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d image: %w", i.Page, err)
	}
	return data, nil
}

// Name returns the base name of the image file.
func (i Image) Name() string {
	return filepath.Base(i.Path)
}

// Document holds the rendered pages of one input file in page order.
type Document struct {
	Source string
	Images []Image

	tempDir string
}

// Close removes temporary page images. It is safe to call more than once.
func (d *Document) Close() error {
	if d == nil || d.tempDir == "" {
		return nil
	}
	dir := d.tempDir
	d.tempDir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove temporary pages: %w", err)
	}
	return nil
}

// Rasterizer renders an input file into page images.
type Rasterizer interface {
	Render(ctx context.Context, path string, dpi int) (*Document, error)
}

// ValidateFormat checks the file extension against SupportedExtensions,
// ignoring case. It returns the lower-cased extension.
func ValidateFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return ext, nil
		}
	}
	sorted := append([]string(nil), SupportedExtensions...)
	sort.Strings(sorted)
	return "", fmt.Errorf("%w: %q (supported: %s)", ocrbridge.ErrUnsupportedFormat, ext, strings.Join(sorted, ", "))
}

// Poppler renders PDFs with pdftoppm and reads image files directly.
type Poppler struct {
	// Command is the pdftoppm executable; defaults to "pdftoppm" on PATH.
	Command string
	// TempDir is the parent of the per-document page directory; defaults to os.TempDir().
	TempDir string
	Logger  zerolog.Logger
}

// NewPoppler returns a Poppler using pdftoppm from PATH.
func NewPoppler(logger zerolog.Logger) *Poppler {
	return &Poppler{Command: "pdftoppm", Logger: logger}
}

// Render implements Rasterizer.
func (p *Poppler) Render(ctx context.Context, path string, dpi int) (*Document, error) {
	ext, err := ValidateFormat(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	if ext != ".pdf" {
		img, err := DecodeImage(path)
		if err != nil {
			return nil, err
		}
		img.Page = 1
		return &Document{Source: path, Images: []Image{img}}, nil
	}

	return p.renderPDF(ctx, path, dpi)
}
