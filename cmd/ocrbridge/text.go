package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gardar/ocrbridge/internal/logger"
	"github.com/gardar/ocrbridge/pkg/hocr"
)

var textCmd = &cobra.Command{
	Use:   "text <file.hocr>",
	Short: "Print the plain text of an hOCR file",
	Long: `Read an hOCR document, from ocrbridge or any other hOCR producer, and
print its text one line per hOCR line with a blank line between paragraphs.`,
	Args: cobra.ExactArgs(1),
	RunE: runText,
}

func init() {
	rootCmd.AddCommand(textCmd)
	textCmd.Flags().StringP("output", "o", "", "Path to save the text (default: stdout)")
}

func runText(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("text")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read hOCR file: %w", err)
	}
	doc, err := hocr.ParseHOCR(data)
	if err != nil {
		return err
	}
	log.Debug().Int("pages", len(doc.Pages)).Int("words", doc.WordCount()).Msg("parsed hOCR")

	outputPath, _ := cmd.Flags().GetString("output")
	return writeOutput(outputPath, []byte(hocr.ExtractHOCRText(&doc)))
}
