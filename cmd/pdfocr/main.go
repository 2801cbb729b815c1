// pdfocr is a command-line tool for creating searchable PDFs with OCR text layers.
//
// This tool can either enhance existing PDFs with OCR text layers or create new PDFs
// from images with embedded OCR text. It uses hOCR data to position text accurately within
// the document at the exact position of each recognized word.
//
// Usage:
//
//	pdfocr --hocr document.hocr --output out.pdf [options]
//	pdfocr detect document.pdf
//
// Input options (one required):
//
//	--pdf string        Path to existing PDF to enhance with OCR
//	--image-dir string  Directory containing page images to build a new PDF
//
// Processing options:
//
//	--dpi float         Resolution the hOCR was recognized at (default 300)
//	--start-page int    Start applying OCR from this page (default 1)
//	--debug             Draw the text layer visibly with word boxes
//	--force             Force reapply OCR even if layer exists
//	--overwrite         Overwrite output file if it exists
//	--debug-pdf         Log PDF structure for debugging
//
// Examples:
//
// Add OCR layer to existing PDF:
//
//	pdfocr --hocr document.hocr --pdf document.pdf --output document_searchable.pdf
//
// Create PDF from image directory with OCR:
//
//	pdfocr --hocr document.hocr --image-dir ./page_images --output document_searchable.pdf
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gardar/ocrbridge/internal/logger"
	"github.com/gardar/ocrbridge/pkg/pdfocr"
)

var rootCmd = &cobra.Command{
	Use:           "pdfocr",
	Short:         "Add an invisible hOCR text layer to PDFs",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runApply,
}

var detectCmd = &cobra.Command{
	Use:   "detect <pdf>",
	Short: "Report OCR layers already present in a PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

func init() {
	f := rootCmd.Flags()
	f.String("hocr", "", "Path to a multi-page hOCR file (required)")
	f.String("image-dir", "", "Directory containing page images")
	f.String("pdf", "", "Path to an existing PDF to add OCR layer to")
	f.StringP("output", "o", "", "Output PDF path (required)")
	f.Float64("dpi", 300, "Resolution the hOCR coordinates were recognized at")
	f.Int("start-page", 1, "Start applying OCR from this page number (1-based index)")
	f.Bool("debug", false, "Draw the OCR text and word boxes visibly")
	f.Bool("force", false, "Force reapply OCR even if an OCR layer is already detected")
	f.Bool("overwrite", false, "Overwrite the output PDF if it already exists")
	f.Bool("debug-pdf", false, "Dump PDF structure for debugging")
	rootCmd.MarkFlagRequired("hocr")
	rootCmd.MarkFlagRequired("output")
	rootCmd.MarkFlagsMutuallyExclusive("image-dir", "pdf")
	rootCmd.MarkFlagsOneRequired("image-dir", "pdf")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := logger.DefaultConfig()
		cfg.Level, _ = cmd.Flags().GetString("log-level")
		_, err := logger.Setup(cfg)
		return err
	}

	rootCmd.AddCommand(detectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runApply(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pdfocr")
	f := cmd.Flags()

	hocrPath, _ := f.GetString("hocr")
	imageDir, _ := f.GetString("image-dir")
	pdfPath, _ := f.GetString("pdf")
	outputPath, _ := f.GetString("output")
	overwrite, _ := f.GetBool("overwrite")

	if _, err := os.Stat(outputPath); err == nil && !overwrite {
		return fmt.Errorf("output file %s already exists, use --overwrite to overwrite", outputPath)
	}

	config := pdfocr.DefaultConfig()
	config.DPI, _ = f.GetFloat64("dpi")
	config.StartPage, _ = f.GetInt("start-page")
	config.Debug, _ = f.GetBool("debug")
	config.Force, _ = f.GetBool("force")
	config.DumpPDF, _ = f.GetBool("debug-pdf")
	config.Logger = log

	hOCR, err := os.ReadFile(hocrPath)
	if err != nil {
		return fmt.Errorf("failed to read hOCR file: %w", err)
	}

	var finalPDF []byte
	if imageDir != "" {
		if config.Force {
			log.Warn().Msg("--force only applies with --pdf, ignoring")
		}
		imagesData, err := readImages(imageDir)
		if err != nil {
			return err
		}
		log.Info().Int("images", len(imagesData)).Str("dir", imageDir).Msg("found page images")

		finalPDF, err = pdfocr.AssembleWithOCR(hOCR, imagesData, config)
		if err != nil {
			return fmt.Errorf("error creating PDF from images: %w", err)
		}
	} else {
		inputData, err := os.ReadFile(pdfPath)
		if err != nil {
			return fmt.Errorf("failed to read input PDF: %w", err)
		}
		finalPDF, err = pdfocr.ApplyOCR(inputData, hOCR, config)
		if err != nil {
			return fmt.Errorf("error applying OCR to existing PDF: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, finalPDF, 0o644); err != nil {
		return fmt.Errorf("failed to write output PDF: %w", err)
	}
	log.Info().Str("output", outputPath).Msg("OCR-enhanced PDF created")
	return nil
}

// readImages loads every file in dir in name order.
func readImages(dir string) ([][]byte, error) {
	imagePaths, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, fmt.Errorf("error accessing image directory: %w", err)
	}
	sort.Strings(imagePaths)

	var imagesData [][]byte
	for _, imgPath := range imagePaths {
		imgBytes, err := os.ReadFile(imgPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", imgPath, err)
		}
		imagesData = append(imagesData, imgBytes)
	}
	return imagesData, nil
}

func runDetect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read PDF: %w", err)
	}

	result := pdfocr.DetectOCR(data, pdfocr.DefaultConfig())
	out := cmd.OutOrStdout()
	for _, layer := range result.LayerInfo.Layers {
		fmt.Fprintf(out, "layer: %s\n", layer)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if result.HasOCR {
		fmt.Fprintf(out, "OCR layer present: %s\n", result.LayerInfo.OCRLayerName)
	} else {
		fmt.Fprintln(out, "no OCR layer found")
	}
	return nil
}
