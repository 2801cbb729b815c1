package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrbridge/pkg/ocrbridge"
)

// DocumentAnnotations converts the tokens of every page in doc into
// annotations, in token order. Documents built from a single page image have
// exactly one page.
func DocumentAnnotations(doc *documentaipb.Document) []ocrbridge.Annotation {
	if doc == nil {
		return nil
	}
	text := []rune(doc.GetText())
	var annotations []ocrbridge.Annotation
	for _, page := range doc.GetPages() {
		annotations = append(annotations, PageAnnotations(page, text)...)
	}
	return annotations
}

// PageAnnotations converts the tokens of one Document AI page. Text anchors
// index the document text by code point. Tokens without geometry are skipped.
func PageAnnotations(page *documentaipb.Document_Page, text []rune) []ocrbridge.Annotation {
	annotations := make([]ocrbridge.Annotation, 0, len(page.GetTokens()))
	for _, token := range page.GetTokens() {
		box, ok := normalizedBox(token.GetLayout(), page.GetDimension())
		if !ok {
			continue
		}
		annotations = append(annotations, ocrbridge.Annotation{
			Text:       tokenText(token, text),
			Confidence: float64(token.GetLayout().GetConfidence()),
			BBox:       box,
		})
	}
	return annotations
}

// tokenText returns the token text without the trailing break.
func tokenText(token *documentaipb.Document_Page_Token, text []rune) string {
	s := anchorText(token.GetLayout().GetTextAnchor(), text)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// anchorText joins the anchor's segments of text. Out of range segments are
// clamped.
func anchorText(anchor *documentaipb.Document_TextAnchor, text []rune) string {
	var b strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		end := min(int(seg.GetEndIndex()), len(text))
		start := min(max(int(seg.GetStartIndex()), 0), end)
		b.WriteString(string(text[start:end]))
	}
	return b.String()
}

// normalizedBox returns the bounding rectangle of the layout's polygon as a
// normalized, bottom-left-origin box. Pixel vertices are normalized with the
// page dimension when no normalized vertices are present.
func normalizedBox(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) (ocrbridge.NormalizedBox, bool) {
	poly := layout.GetBoundingPoly()
	if poly == nil {
		return ocrbridge.NormalizedBox{}, false
	}

	var xs, ys []float64
	switch {
	case len(poly.GetNormalizedVertices()) > 0:
		for _, v := range poly.GetNormalizedVertices() {
			xs = append(xs, float64(v.GetX()))
			ys = append(ys, float64(v.GetY()))
		}
	case len(poly.GetVertices()) > 0 && dim.GetWidth() > 0 && dim.GetHeight() > 0:
		w, h := float64(dim.GetWidth()), float64(dim.GetHeight())
		for _, v := range poly.GetVertices() {
			xs = append(xs, float64(v.GetX())/w)
			ys = append(ys, float64(v.GetY())/h)
		}
	default:
		return ocrbridge.NormalizedBox{}, false
	}

	return ocrbridge.FromTopLeftExtent(xs, ys)
}
