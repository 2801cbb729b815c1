package hocr

import "fmt"

// HOCR represents the entire hOCR document structure
type HOCR struct {
	Title       string            // Document title, usually the source name
	Description string            // Document description
	Language    string            // Document language
	Metadata    map[string]string // <meta name=...> entries (ocr-system, ocr-capabilities, ...)
	Pages       []Page            // Pages in the document
}

// Page is one page of recognized text
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID         string            // Unique identifier, page_<n>
	PageNumber int               // 1-based page number in document
	ImageName  string            // Source image filename
	Lang       string            // Language code for this page
	BBox       BoundingBox       // Page coordinates, always anchored at 0 0
	Areas      []Area            // Content areas (columns)
	Paragraphs []Paragraph       // Paragraphs directly under page
	Lines      []Line            // Lines directly under page (no parent)
	Words      []Word            // Words directly under page (no line parent)
	Metadata   map[string]string // Other page properties
}

// Class assign 'ocr_page' to 'Page' struct
func (Page) Class() string { return "ocr_page" }

// TitleAttr renders the hOCR title attribute of the page.
func (p Page) TitleAttr() string {
	title := ""
	if p.ImageName != "" {
		title = fmt.Sprintf("image %q; ", p.ImageName)
	}
	title += p.BBox.String()
	if p.PageNumber > 0 {
		title += fmt.Sprintf("; ppageno %d", p.PageNumber-1)
	}
	return title
}

// Area represents a content area (column or region)
// Corresponds to hOCR element with class: 'ocr_carea'
type Area struct {
	ID         string
	Lang       string
	BBox       BoundingBox
	Paragraphs []Paragraph
	Lines      []Line
	Words      []Word
	Metadata   map[string]string
}

// Class assign 'ocr_carea' to 'Area' struct
func (Area) Class() string { return "ocr_carea" }

// Paragraph represents a paragraph within an area or page
// Corresponds to hOCR element with class: 'ocr_par'
type Paragraph struct {
	ID       string
	Lang     string
	BBox     BoundingBox
	Lines    []Line
	Words    []Word // Words directly under paragraph (no line parent)
	Metadata map[string]string
}

// Class assign 'ocr_par' to 'Paragraph' struct
func (Paragraph) Class() string { return "ocr_par" }

// Line represents a line of text
// Corresponds to hOCR element with class: 'ocr_line'
type Line struct {
	ID       string
	Lang     string
	BBox     BoundingBox
	Baseline string // Raw baseline property, e.g. "0.015 -18"
	Words    []Word
	Metadata map[string]string
}

// Class assign 'ocr_line' to 'Line' struct
func (Line) Class() string { return "ocr_line" }

// TitleAttr renders the hOCR title attribute of the line.
func (l Line) TitleAttr() string {
	if l.Baseline == "" {
		return l.BBox.String()
	}
	return l.BBox.String() + "; baseline " + l.Baseline
}

// Word is a recognized word with bounding box
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID         string
	Text       string      // The actual text content, unescaped
	BBox       BoundingBox // Word coordinates
	Confidence int         // Recognition confidence (0-100)
	Lang       string
	Metadata   map[string]string
}

// Class assign 'ocrx_word' to 'Word' struct
func (Word) Class() string { return "ocrx_word" }

// TitleAttr renders the hOCR title attribute of the word.
func (w Word) TitleAttr() string {
	return fmt.Sprintf("%s; x_wconf %d", w.BBox.String(), w.Confidence)
}

// BoundingBox is an absolute pixel rectangle with a top-left origin.
// It stores the hOCR 'bbox' property: X1,Y1 is the top-left corner and
// X2,Y2 the bottom-right corner.
type BoundingBox struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// NewBoundingBox creates a bounding box from the x1, y1, x2, y2 values of a
// 'bbox' property.
func NewBoundingBox(x1, y1, x2, y2 int) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width of the box in pixels.
func (b BoundingBox) Width() int { return b.X2 - b.X1 }

// Height of the box in pixels.
func (b BoundingBox) Height() int { return b.Y2 - b.Y1 }

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		X1: min(b.X1, o.X1),
		Y1: min(b.Y1, o.Y1),
		X2: max(b.X2, o.X2),
		Y2: max(b.Y2, o.Y2),
	}
}

// String formats the box as an hOCR bbox property.
func (b BoundingBox) String() string {
	return fmt.Sprintf("bbox %d %d %d %d", b.X1, b.Y1, b.X2, b.Y2)
}
