// Package pdfocr adds invisible OCR text layers from hOCR to PDF documents.
//
// It either assembles a new PDF from page images or overlays an existing
// PDF. hOCR coordinates are pixels of the recognized page images; they are
// scaled to PDF points with the configured DPI so the text sits exactly over
// the words it was read from. The resulting text is:
// - Fully searchable
// - Selectable with mouse drag operations
// - Placed on a named optional content layer that compatible readers can toggle
//
// Main Functions:
//
// - ApplyOCR: Adds OCR text layer to an existing PDF
// - AssembleWithOCR: Creates a new PDF from images with OCR text layer
// - DetectOCR: Reports OCR layers already present in a PDF
package pdfocr

import (
	"fmt"

	"github.com/gardar/ocrbridge/pkg/hocr"
)

// parseHOCRInput accepts raw hOCR data ([]byte or string) or a parsed
// *hocr.HOCR.
func parseHOCRInput(hocrInput interface{}) (hocr.HOCR, error) {
	switch h := hocrInput.(type) {
	case []byte:
		doc, err := hocr.ParseHOCR(h)
		if err != nil {
			return hocr.HOCR{}, fmt.Errorf("failed to parse HOCR data: %w", err)
		}
		return doc, nil
	case string:
		return parseHOCRInput([]byte(h))
	case *hocr.HOCR:
		if h == nil {
			return hocr.HOCR{}, fmt.Errorf("HOCR struct is nil")
		}
		return *h, nil
	default:
		return hocr.HOCR{}, fmt.Errorf("unsupported HOCR input type: %T", hocrInput)
	}
}

// AssembleWithOCR is a high-level function for creating a PDF from images
// and applying the HOCR text overlay. Images are PNG or JPEG, one per hOCR
// page in order.
func AssembleWithOCR(
	hocrInput interface{},
	imagesData [][]byte,
	config OCRConfig,
) ([]byte, error) {
	hocrStruct, err := parseHOCRInput(hocrInput)
	if err != nil {
		return nil, err
	}

	// Validate inputs
	if len(hocrStruct.Pages) == 0 {
		return nil, fmt.Errorf("HOCR data contains no pages")
	}
	if len(imagesData) == 0 {
		return nil, fmt.Errorf("no image data provided")
	}
	if config.StartPage < 1 {
		return nil, fmt.Errorf("start page must be at least 1, got %d", config.StartPage)
	}
	if len(imagesData) < len(hocrStruct.Pages) {
		return nil, fmt.Errorf("not enough images (%d) for HOCR pages (%d)",
			len(imagesData), len(hocrStruct.Pages))
	}

	for i, imgData := range imagesData {
		if len(imgData) == 0 {
			return nil, fmt.Errorf("image %d is empty", i+1)
		}
		imageType, err := detectImageType(imgData)
		if err != nil {
			return nil, fmt.Errorf("image %d has invalid format: %w", i+1, err)
		}
		config.Logger.Debug().Int("image", i+1).Str("type", imageType).Msg("detected image type")
	}

	finalPDF, err := createPDFFromImage(hocrStruct, imagesData, config)
	if err != nil {
		return nil, fmt.Errorf("error creating PDF from images: %w", err)
	}
	return finalPDF, nil
}

// ApplyOCR is a high-level function for taking an existing PDF and applying hOCR overlays.
// It refuses PDFs that already carry an OCR layer of the same name unless
// config.Force is set.
func ApplyOCR(
	inputPDFData []byte,
	hocrInput interface{},
	config OCRConfig,
) ([]byte, error) {
	hocrStruct, err := parseHOCRInput(hocrInput)
	if err != nil {
		return nil, err
	}

	// Validate inputs
	if len(inputPDFData) == 0 {
		return nil, fmt.Errorf("input PDF data is empty")
	}
	if len(hocrStruct.Pages) == 0 {
		return nil, fmt.Errorf("HOCR data contains no pages")
	}
	if config.StartPage < 1 {
		return nil, fmt.Errorf("start page must be at least 1, got %d", config.StartPage)
	}

	if config.DumpPDF {
		dumpPDFStructure(inputPDFData, 2000, config.Logger)
	}

	layerResult, err := CheckExistingOCRLayers(inputPDFData, config.LayerName)
	if err != nil {
		return nil, fmt.Errorf("layer detection failed: %w", err)
	}

	if len(layerResult.Layers) > 0 {
		config.Logger.Info().Strs("layers", layerResult.Layers).Msg("existing layers detected in PDF")
	}
	for _, warning := range layerResult.Warnings {
		config.Logger.Warn().Msg(warning)
	}

	// Enforce safety check unless force override is requested
	if layerResult.HasOCRLayer && !config.Force {
		return nil, fmt.Errorf("file already has OCR (layer '%s'), use --force to reapply",
			layerResult.OCRLayerName)
	} else if layerResult.HasOCRLayer {
		config.Logger.Warn().Msg("file already has OCR; reapplying due to --force will result in duplicate OCR data")
	}

	finalPDF, err := modifyExistingPDF(inputPDFData, hocrStruct, config)
	if err != nil {
		return nil, fmt.Errorf("error modifying existing PDF: %w", err)
	}

	return finalPDF, nil
}
