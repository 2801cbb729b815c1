package pdfocr

import (
	"fmt"
	"regexp"
	"strings"
)

// Patterns that capture optional content group (layer) names.
var ocgPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/Type\s*/OCG\s*/Name\s*\(([^)]+)\)`),
	regexp.MustCompile(`/Title\s*\(([^)]+)\)`),
	regexp.MustCompile(`/OCG\s*<<[^>]*?/Name\s*\(([^)]+)\)`),
	regexp.MustCompile(`<</Type/OCG/Name\(([^)]+)\)`),
	regexp.MustCompile(`/OCProperties.*?/OCGs\s*\[\s*.*?/Name\s*\(([^)]+)\)`),
	regexp.MustCompile(`/Name\s*\(([^)]+)\)[\s\S]{1,50}/Type\s*/OCG`),
}

// detectPDFLayers attempts to find layer names in the raw PDF data.
func detectPDFLayers(pdfData []byte) ([]string, error) {
	if len(pdfData) == 0 {
		return nil, fmt.Errorf("empty PDF data")
	}

	content := string(pdfData)
	var layers []string
	for _, regex := range ocgPatterns {
		for _, match := range regex.FindAllStringSubmatch(content, -1) {
			if len(match) >= 2 {
				layers = append(layers, unescapePDFString(match[1]))
			}
		}
	}

	// Check if any are UTF-16 BOM
	for i, layer := range layers {
		if len(layer) >= 2 && layer[0] == '\xfe' && layer[1] == '\xff' {
			decoded, err := decodeUTF16BE([]byte(layer))
			if err == nil {
				layers[i] = decoded
			}
		}
	}

	// Deduplicate
	unique := make([]string, 0, len(layers))
	seen := make(map[string]bool)
	for _, l := range layers {
		if !seen[l] {
			seen[l] = true
			unique = append(unique, l)
		}
	}
	return unique, nil
}

// LayerCheckResult contains the results of checking for OCR layers
type LayerCheckResult struct {
	Layers       []string // All detected layers
	HasOCRLayer  bool     // True if the specified OCR layer exists
	OCRLayerName string   // Name of the detected OCR layer (if any)
	Warnings     []string // Layers whose name suggests OCR from another tool
}

// CheckExistingOCRLayers looks for a layer named ocrLayerName, or
// "<ocrLayerName> (Page N)" as written by drawOCRLayer.
func CheckExistingOCRLayers(pdfData []byte, ocrLayerName string) (LayerCheckResult, error) {
	result := LayerCheckResult{}

	layers, err := detectPDFLayers(pdfData)
	if err != nil {
		return result, fmt.Errorf("cannot analyze layers: %w", err)
	}
	result.Layers = layers

	// Lenient about spacing and anything after the page number.
	pageLayerPattern := regexp.MustCompile(fmt.Sprintf(`^%s\s*\(Page\s*\d+.*`, regexp.QuoteMeta(ocrLayerName)))

	for _, layer := range layers {
		if layer == ocrLayerName || pageLayerPattern.MatchString(layer) {
			result.HasOCRLayer = true
			result.OCRLayerName = layer
			break
		}
		if strings.Contains(strings.ToLower(layer), "ocr") && !strings.HasPrefix(layer, ocrLayerName) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Existing layer detected that might contain OCR: %s", layer))
		}
	}

	return result, nil
}

// OCRDetectionResult summarizes DetectOCR.
type OCRDetectionResult struct {
	HasOCR    bool             // True if the configured OCR layer is present
	LayerInfo LayerCheckResult // Details from layer detection
	Warnings  []string
}

// DetectOCR reports whether pdfData already carries the configured OCR
// layer. Layer detection errors are reported as warnings.
func DetectOCR(pdfData []byte, config OCRConfig) OCRDetectionResult {
	result := OCRDetectionResult{}

	layerResult, err := CheckExistingOCRLayers(pdfData, config.LayerName)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Layer detection error: %v", err))
		return result
	}

	result.LayerInfo = layerResult
	result.HasOCR = layerResult.HasOCRLayer
	result.Warnings = append(result.Warnings, layerResult.Warnings...)
	return result
}
