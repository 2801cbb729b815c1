package raster

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// pdftoppm names pages <prefix>-<n>.png, zero padding n to the width of the
// page count.
var pageFilePattern = regexp.MustCompile(`-(\d+)\.png$`)

func (p *Poppler) renderPDF(ctx context.Context, path string, dpi int) (*Document, error) {
	dir, err := os.MkdirTemp(p.TempDir, "ocrbridge-pages-")
	if err != nil {
		return nil, fmt.Errorf("failed to create page directory: %w", err)
	}
	doc := &Document{Source: path, tempDir: dir}

	command := p.Command
	if command == "" {
		command = "pdftoppm"
	}

	p.Logger.Debug().Str("file", path).Int("dpi", dpi).Msg("rendering PDF pages")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, "-r", strconv.Itoa(dpi), "-png", path, filepath.Join(dir, "page"))
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		doc.Close()
		return nil, fmt.Errorf("PDF conversion failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	images, err := collectPages(dir)
	if err != nil {
		doc.Close()
		return nil, err
	}
	if len(images) == 0 {
		doc.Close()
		return nil, fmt.Errorf("PDF conversion produced no pages for %s", path)
	}
	doc.Images = images

	p.Logger.Debug().Str("file", path).Int("pages", len(images)).Msg("rendered PDF")
	return doc, nil
}

// collectPages decodes every rendered page in dir, ordered by page number.
func collectPages(dir string) ([]Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}

	var images []Image
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		page, ok := pageNumber(e.Name())
		if !ok {
			continue
		}
		img, err := DecodeImage(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		img.Page = page
		images = append(images, img)
	}

	sort.Slice(images, func(i, j int) bool { return images[i].Page < images[j].Page })
	return images, nil
}

// pageNumber extracts the page number from a pdftoppm output file name.
func pageNumber(name string) (int, bool) {
	m := pageFilePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
