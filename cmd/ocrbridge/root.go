package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gardar/ocrbridge/internal/config"
	"github.com/gardar/ocrbridge/internal/logger"
)

var version = "dev"

var (
	configPath string
	logLevel   string

	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "ocrbridge",
	Short: "Convert OCR results into hOCR documents",
	Long: `ocrbridge runs an OCR engine over images and PDFs and writes the result
as a standards compliant multi-page hOCR document with pixel coordinates.

Supported inputs: .jpg .jpeg .png .tif .tiff .pdf
Supported engines: ocrmac (Apple Vision via a helper), gdocai (Google
Document AI) and gvision (Google Cloud Vision).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		closer, err := logger.Setup(loaded.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg, logCloser = loaded, closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Debug().Err(err).Msg("command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config YAML file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
}
