// Package hocr implements parsing and generation of hOCR data, the XHTML-based
// format for representing OCR results with positional and confidence metadata.
//
// The object model follows the hOCR hierarchy:
// Document → Pages → Areas → Paragraphs → Lines → Words.
// Every level also accepts the next-but-one level as a direct child, because
// engines frequently skip intermediate levels (a page holding bare words is
// valid hOCR).
//
// Coordinates are absolute pixels with a top-left origin and are stored as
// integers, exactly as they appear in 'bbox' title properties.
//
// Main Functions:
//
// - GenerateHOCRDocument: renders the object model as a well-formed XHTML document
// - ParseHOCR: parses hOCR (ours or another engine's) back into the object model
// - ExtractHOCRText: flattens a document to plain text in reading order
package hocr
