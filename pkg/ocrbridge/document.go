// Package ocrbridge turns OCR engine annotations into hOCR.
//
// Engines report text regions as fractions of the image size with a
// bottom-left origin. This package converts them to absolute, top-left
// pixel coordinates (Transform), builds one hOCR page per engine result
// (BuildPage) and assembles pages into a single XHTML document (Assemble).
//
// Everything here is synchronous and free of shared state. Running the
// engine, rasterizing inputs and ordering concurrent results are the
// caller's job; see the pipeline package.
package ocrbridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gardar/ocrbridge/pkg/hocr"
)

// Capabilities lists the hOCR features present in generated documents.
const Capabilities = "ocr_page ocr_par ocr_line ocrx_word ocrp_wconf ocrp_lang"

// Assemble wraps pages in a complete hOCR document and renders it.
//
// Pages are emitted in the order given; the caller is responsible for
// ordering them. One page and many pages take the same path. Assembling zero
// pages fails with ErrInvalidDocument.
func Assemble(pages []hocr.Page, meta Metadata) (string, error) {
	if len(pages) == 0 {
		return "", ErrInvalidDocument
	}

	doc := NewDocument(pages, meta)

	out, err := hocr.GenerateHOCRDocument(doc)
	if err != nil {
		return "", fmt.Errorf("failed to generate hOCR document: %w", err)
	}
	return out, nil
}

// AssembleResults builds every page with BuildPage and assembles them.
func AssembleResults(results []PageResult, meta Metadata, opts PageOptions) (string, error) {
	if len(results) == 0 {
		return "", ErrInvalidDocument
	}
	pages := make([]hocr.Page, 0, len(results))
	for _, r := range results {
		pages = append(pages, BuildPage(r, opts))
	}
	return Assemble(pages, meta)
}

// NewDocument creates the HOCR document structure for the given pages
// without rendering it.
func NewDocument(pages []hocr.Page, meta Metadata) *hocr.HOCR {
	doc := &hocr.HOCR{
		Title: meta.SourceName,
		Metadata: map[string]string{
			"ocr-system":          meta.ocrSystem(),
			"ocr-capabilities":    Capabilities,
			"ocr-number-of-pages": strconv.Itoa(len(pages)),
			"ocr-page-sizes":      pageSizes(pages),
		},
		Pages: make([]hocr.Page, 0, len(pages)),
	}
	doc.Pages = append(doc.Pages, pages...)

	if meta.Capability != "" {
		doc.Metadata["ocr-recognition-level"] = meta.Capability
	}
	if len(meta.Languages) > 0 {
		doc.Language = meta.Languages[0]
		doc.Metadata["ocr-langs"] = strings.Join(meta.Languages, " ")
	}

	return doc
}

// pageSizes lists "<id> <width>x<height>" for every page, comma separated.
func pageSizes(pages []hocr.Page) string {
	sizes := make([]string, 0, len(pages))
	for _, p := range pages {
		sizes = append(sizes, fmt.Sprintf("%s %dx%d", p.ID, p.BBox.Width(), p.BBox.Height()))
	}
	return strings.Join(sizes, ", ")
}
