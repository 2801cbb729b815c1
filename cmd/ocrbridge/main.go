// ocrbridge converts images and PDFs into hOCR documents.
//
// Pages are rasterized, recognized by one of the supported OCR engines and
// merged into a single multi-page hOCR file. Optionally the plain text and
// a searchable PDF are written as well.
//
// Configuration:
//
// Settings are read from an optional YAML file (-c/--config), then from
// OCRBRIDGE_* environment variables (a .env file in the working directory
// is loaded first), then from flags:
//
//	engine: ocrmac            # ocrmac, gdocai or gvision
//	recognition_level: accurate
//	languages: [en-US]
//	dpi: 300
//	google:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//
// Usage:
//
//	ocrbridge recognize [flags] <file>
//	ocrbridge text <file.hocr>
//
// Example:
//
//	ocrbridge recognize scan.pdf -o scan.hocr --text scan.txt --pdf-output scan_ocr.pdf
//	ocrbridge recognize --engine gdocai --lang de-DE invoice.png
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	Execute()
}
