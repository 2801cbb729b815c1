package ocrbridge

import (
	"errors"
	"fmt"
	"math"

	"github.com/gardar/ocrbridge/pkg/hocr"
)

// BuildPage converts one page of annotations into an hOCR page.
//
// Engines that report flat text regions carry no line or paragraph
// structure, so every annotation becomes a single-word line and all lines
// share one paragraph. Positions and confidences are preserved exactly;
// reading structure is not reconstructed.
//
// Identifiers are derived from the page index and the 1-based position of
// the annotation: page_<n>, par_<n>_1, line_<n>_<seq>, word_<n>_<seq>.
// A page without annotations yields a page element with no children.
// Malformed boxes are clamped and never fail the page.
func BuildPage(page PageResult, opts PageOptions) hocr.Page {
	log := opts.logger()
	width, height := max(page.Width, 0), max(page.Height, 0)

	ocrPage := hocr.Page{
		ID:         fmt.Sprintf("page_%d", page.Index),
		PageNumber: page.Index,
		ImageName:  page.ImageName,
		BBox:       hocr.NewBoundingBox(0, 0, width, height),
	}

	if len(page.Annotations) == 0 {
		return ocrPage
	}

	ocrParagraph := hocr.Paragraph{
		ID:    fmt.Sprintf("par_%d_1", page.Index),
		Lines: make([]hocr.Line, 0, len(page.Annotations)),
	}
	if len(opts.Languages) > 0 {
		ocrParagraph.Lang = opts.Languages[0]
	}

	for i, ann := range page.Annotations {
		seq := i + 1

		if err := CheckBox(ann.BBox); err != nil {
			var coordErr *CoordinateError
			if errors.As(err, &coordErr) {
				coordErr.Annotation = seq
			}
			log.Debug().Err(err).Int("page", page.Index).Int("annotation", seq).Msg("clamping bounding box")
		}

		px := Transform(ann.BBox, width, height)
		bbox := hocr.NewBoundingBox(px.XMin, px.YMin, px.XMax, px.YMax)

		word := hocr.Word{
			ID:         fmt.Sprintf("word_%d_%d", page.Index, seq),
			Text:       ann.Text,
			BBox:       bbox,
			Confidence: confidencePercent(ann.Confidence),
		}

		ocrParagraph.Lines = append(ocrParagraph.Lines, hocr.Line{
			ID:    fmt.Sprintf("line_%d_%d", page.Index, seq),
			BBox:  bbox,
			Words: []hocr.Word{word},
		})
		if i == 0 {
			ocrParagraph.BBox = bbox
		} else {
			ocrParagraph.BBox = ocrParagraph.BBox.Union(bbox)
		}
	}

	ocrPage.Paragraphs = []hocr.Paragraph{ocrParagraph}
	return ocrPage
}

// confidencePercent scales a 0..1 confidence to a rounded integer percentage
// clamped to 0..100.
func confidencePercent(c float64) int {
	if math.IsNaN(c) {
		return 0
	}
	pct := math.Round(c * 100)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return int(pct)
}
