package pdfocr

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/rs/zerolog"
)

// scaleCoords converts hOCR pixel coordinates to PDF points.
func scaleCoords(x, y, scale float64) (float64, float64) {
	return x * scale, y * scale
}

func unescapePDFString(s string) string {
	s = strings.ReplaceAll(s, "\\(", "(")
	s = strings.ReplaceAll(s, "\\)", ")")
	s = strings.ReplaceAll(s, "\\\\", "\\")
	return s
}

// decodeUTF16BE decodes a PDF text string that starts with a UTF-16BE byte
// order mark.
func decodeUTF16BE(b []byte) (string, error) {
	if len(b) < 2 {
		return "", fmt.Errorf("input too short for UTF-16BE")
	}
	if b[0] != 0xFE || b[1] != 0xFF {
		return "", fmt.Errorf("no BOM detected, cannot confirm UTF-16BE")
	}
	b = b[2:]

	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units)), nil
}

// dumpPDFStructure logs the first byteCount bytes of the PDF plus the
// context of the first /OCG layer reference at debug level.
func dumpPDFStructure(pdfData []byte, byteCount int, logger zerolog.Logger) {
	byteCount = min(byteCount, len(pdfData))
	logger.Debug().Int("bytes", byteCount).Str("head", string(pdfData[:byteCount])).Msg("PDF structure dump")

	ocgIndex := bytes.Index(pdfData, []byte("/OCG"))
	if ocgIndex >= 0 {
		start := max(ocgIndex-20, 0)
		end := min(ocgIndex+100, len(pdfData))
		logger.Debug().Str("context", string(pdfData[start:end])).Msg("PDF OCG context")
	}
}
