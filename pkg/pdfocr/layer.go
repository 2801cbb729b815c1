package pdfocr

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/ocrbridge/pkg/hocr"
)

// drawOCRLayer draws the OCR text onto a layer in a pdf page.
// The pageNum parameter is used to create unique layer names for each page.
func drawOCRLayer(
	pdf *fpdf.Fpdf,
	page hocr.Page,
	config OCRConfig,
	pageNum int,
	transform func(x, y float64) (float64, float64),
) error {
	formattedLayerName := config.LayerName
	if pageNum > 0 {
		formattedLayerName = fmt.Sprintf("%s (Page %d)", config.LayerName, pageNum)
	}

	layer := pdf.AddLayer(formattedLayerName, true)
	pdf.BeginLayer(layer)
	pdf.SetFont(config.Font.Name, config.Font.Style, config.Font.Size)

	if config.Debug {
		pdf.SetTextColor(255, 0, 0) // highlight text in red
	} else {
		pdf.SetAlpha(0.0, "Normal") // hide text from normal view
	}

	encodingErrors := 0
	wordCount := 0
	for _, word := range page.AllWords() {
		if word.Text == "" {
			continue
		}
		if !drawWord(pdf, word, transform, config.Font, config.Debug) {
			encodingErrors++
		}
		wordCount++
	}

	if !config.Debug {
		pdf.SetAlpha(1.0, "Normal")
	}
	pdf.EndLayer()

	config.Logger.Debug().Int("page", pageNum).Int("words", wordCount).Int("encoding_errors", encodingErrors).Msg("drew OCR layer")

	// Report encoding errors if more than a threshold
	if wordCount > 0 && encodingErrors > 0 && encodingErrors > wordCount/10 {
		return fmt.Errorf("character encoding issues in %d of %d words",
			encodingErrors, wordCount)
	}

	return pdf.Error()
}

// drawWord renders a single word onto the PDF layer, stretching the font so
// the text spans the word box. It reports false when the text could not be
// encoded as Latin-1.
func drawWord(pdf *fpdf.Fpdf, word hocr.Word, transform func(x, y float64) (float64, float64),
	fontConfig FontConfig, debug bool) bool {

	x, y := transform(float64(word.BBox.X1), float64(word.BBox.Y1))
	x2, y2 := transform(float64(word.BBox.X2), float64(word.BBox.Y2))
	wordWidth := x2 - x

	// Convert text to ISO-8859-1 to avoid PDF encoding issues
	encoded := true
	latin1, err := charmap.ISO8859_1.NewEncoder().String(word.Text)
	if err != nil {
		encoded = false
		latin1 = word.Text // fallback to raw text
	}

	strWidth := pdf.GetStringWidth(latin1)
	if strWidth > 0 && wordWidth > 0 {
		scale := wordWidth / strWidth
		pdf.SetFontSize(fontConfig.Size * scale)
	}

	fontSize, _ := pdf.GetFontSize()
	pdf.Text(x, y+fontSize*fontConfig.AscentRatio, latin1)
	pdf.SetFontSize(fontConfig.Size)

	if debug {
		pdf.Rect(x, y, wordWidth, y2-y, "D")
	}
	return encoded
}
