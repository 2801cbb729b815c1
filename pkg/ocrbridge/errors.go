package ocrbridge

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument is returned when a document is assembled from zero pages.
	ErrInvalidDocument = errors.New("invalid document: no pages to assemble")

	// ErrUnsupportedCapability is returned by engines when the requested
	// recognition mode is not available on this platform or version.
	ErrUnsupportedCapability = errors.New("unsupported recognition capability")

	// ErrEngineExecution is returned by engines when recognition itself failed.
	ErrEngineExecution = errors.New("ocr engine execution failed")

	// ErrUnsupportedFormat is returned by rasterizers for unrecognized inputs.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// CoordinateError describes a malformed bounding box. It is reported for
// diagnostics only; Transform always recovers by clamping.
type CoordinateError struct {
	Annotation int // 1-based position on the page, 0 when unknown
	Box        NormalizedBox
	Reason     string
}

func (e *CoordinateError) Error() string {
	if e.Annotation > 0 {
		return fmt.Sprintf("annotation %d: malformed bbox %v: %s", e.Annotation, e.Box, e.Reason)
	}
	return fmt.Sprintf("malformed bbox %v: %s", e.Box, e.Reason)
}

// PageError attaches the page (and annotation, when known) to an error that
// aborted processing of that page. The wrapped error stays matchable with
// errors.Is.
type PageError struct {
	Page       int // 1-based page index
	Annotation int // 1-based annotation index, 0 when unknown
	Err        error
}

func (e *PageError) Error() string {
	if e.Annotation > 0 {
		return fmt.Sprintf("page %d, annotation %d: %v", e.Page, e.Annotation, e.Err)
	}
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

// Unwrap returns the underlying error.
func (e *PageError) Unwrap() error {
	return e.Err
}
