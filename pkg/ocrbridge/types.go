package ocrbridge

import (
	"fmt"

	"github.com/rs/zerolog"
)

// NormalizedBox is a bounding box as reported by the OCR engine: fractions of
// the image width and height with the origin at the bottom-left corner.
// X, Y locate the bottom-left corner of the box.
type NormalizedBox struct {
	X float64
	Y float64
	W float64
	H float64
}

func (b NormalizedBox) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", b.X, b.Y, b.W, b.H)
}

// Annotation is one recognized text region.
type Annotation struct {
	Text       string
	Confidence float64 // 0..1
	BBox       NormalizedBox
}

// PixelBox is an absolute pixel rectangle with a top-left origin.
type PixelBox struct {
	XMin int
	YMin int
	XMax int
	YMax int
}

// PageResult holds the annotations of one page in reading order.
type PageResult struct {
	Index       int // 1-based, unique within a document
	Width       int // pixels
	Height      int // pixels
	ImageName   string
	Annotations []Annotation
}

// PageOptions controls BuildPage.
type PageOptions struct {
	// Languages are the BCP 47 tags the engine was asked for; the first one
	// is recorded on the page's paragraph.
	Languages []string
	// Logger receives debug reports about clamped geometry. Nil discards them.
	Logger *zerolog.Logger
}

func (o PageOptions) logger() *zerolog.Logger {
	if o.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return o.Logger
}

// Metadata describes the document as a whole.
type Metadata struct {
	SourceName    string   // input file name
	EngineName    string   // e.g. "ocrmac"
	EngineVersion string   // optional
	Capability    string   // effective recognition level, e.g. "accurate"
	Languages     []string // requested languages, in preference order
}

// ocrSystem is the value of the ocr-system meta tag.
func (m Metadata) ocrSystem() string {
	name := m.EngineName
	if name == "" {
		name = "ocrbridge"
	}
	if m.EngineVersion != "" {
		return name + " " + m.EngineVersion
	}
	return name
}
