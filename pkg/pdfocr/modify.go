package pdfocr

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/gardar/ocrbridge/pkg/hocr"
)

// modifyExistingPDF imports pages from an existing PDF and overlays OCR text layer.
// hOCR page i is drawn over source page StartPage+i.
func modifyExistingPDF(inputPDFData []byte, hOCRData hocr.HOCR, config OCRConfig) ([]byte, error) {
	scale := config.scale()
	pdf := fpdf.New("P", "pt", "", "")
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(inputPDFData))

	for i, page := range hOCRData.Pages {
		targetPage := i + config.StartPage
		actualPageNum := i + 1

		w, h := scaleCoords(float64(page.BBox.Width()), float64(page.BBox.Height()), scale)
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("page %d has no size", actualPageNum)
		}
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		tpl := importer.ImportPageFromStream(pdf, &rs, targetPage, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, w, 0)

		transform := func(x, y float64) (float64, float64) {
			return scaleCoords(x, y, scale)
		}

		if err := drawOCRLayer(pdf, page, config, actualPageNum, transform); err != nil {
			return nil, fmt.Errorf("failed to draw OCR layer for page %d: %w", actualPageNum, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
