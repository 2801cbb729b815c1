package pdfocr

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/ocrbridge/pkg/hocr"
)

// createPDFFromImage builds a new PDF from images with their corresponding OCR data.
// Each page is sized to its hOCR page box converted to points.
// This function assumes inputs have been validated by the caller.
func createPDFFromImage(hOCRData hocr.HOCR, imagesData [][]byte, config OCRConfig) ([]byte, error) {
	startIdx := config.StartPage - 1
	scale := config.scale()
	pdf := fpdf.New("P", "pt", "A4", "")

	for i := startIdx; i < len(hOCRData.Pages) && i < len(imagesData); i++ {
		page := hOCRData.Pages[i]
		w, h := scaleCoords(float64(page.BBox.Width()), float64(page.BBox.Height()), scale)
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("page %d has no size", i+1)
		}

		// 1-based page number in the resulting PDF
		actualPageNum := i + 1

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		imageName := fmt.Sprintf("img%d", i)
		imageType, err := detectImageType(imagesData[i])
		if err != nil {
			return nil, fmt.Errorf("failed to detect image type for image %d: %w", i+1, err)
		}
		if !pdfImageTypes[imageType] {
			return nil, fmt.Errorf("image %d: %s images cannot be embedded in a PDF, use PNG or JPEG", i+1, imageType)
		}

		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(imagesData[i]))
		pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to embed image %d: %w", i+1, err)
		}

		transform := func(x, y float64) (float64, float64) {
			return scaleCoords(x, y, scale)
		}

		if err := drawOCRLayer(pdf, page, config, actualPageNum, transform); err != nil {
			return nil, fmt.Errorf("failed to draw OCR layer for page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Image types fpdf can embed.
var pdfImageTypes = map[string]bool{"PNG": true, "JPEG": true, "JPG": true, "GIF": true}

// detectImageType tries to figure out whether the data is PNG, JPEG, etc.
func detectImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return strings.ToUpper(format), nil
}
