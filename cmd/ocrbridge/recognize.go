package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/gardar/ocrbridge/internal/config"
	"github.com/gardar/ocrbridge/internal/logger"
	"github.com/gardar/ocrbridge/pkg/engine"
	"github.com/gardar/ocrbridge/pkg/gdocai"
	"github.com/gardar/ocrbridge/pkg/gvision"
	"github.com/gardar/ocrbridge/pkg/hocr"
	"github.com/gardar/ocrbridge/pkg/pdfocr"
	"github.com/gardar/ocrbridge/pkg/pipeline"
	"github.com/gardar/ocrbridge/pkg/raster"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <file>",
	Short: "Recognize an image or PDF and write hOCR",
	Long: `Rasterize the input, run the configured OCR engine on every page and
merge the pages into one hOCR document. The document is written to stdout
unless --output is given.

The ocrmac engine needs macOS and the ocrmac helper on PATH; the livetext
level needs macOS 14 or later. The Google engines authenticate with
GOOGLE_APPLICATION_CREDENTIALS or google.credentials_file.`,
	Example: `  ocrbridge recognize page.png > page.hocr
  ocrbridge recognize scan.pdf --level accurate --lang en-US --lang de-DE -o scan.hocr
  ocrbridge recognize scan.pdf --engine gvision --pdf-output scan_ocr.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	addRecognizeFlags(recognizeCmd)
}

func addRecognizeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("engine", "", "OCR engine: ocrmac, gdocai or gvision")
	f.String("helper", "", "ocrmac helper command")
	f.StringP("level", "l", "", "Recognition level: fast, balanced, accurate or livetext")
	f.StringSlice("lang", nil, "Language hint in BCP 47 form, repeatable (max 5)")
	f.Int("dpi", 0, "PDF render resolution")
	f.Int("concurrency", 0, "Pages recognized at once")
	f.Float64("rps", 0, "Maximum engine requests per second (0 means unlimited)")
	f.StringP("output", "o", "", "Path to save the hOCR output (default: stdout)")
	f.String("text", "", "Path to save the plain text")
	f.String("pdf-output", "", "Path to save a searchable PDF")
	f.Bool("force", false, "Add the PDF text layer even if the input already has one")
	f.Bool("overwrite", false, "Overwrite output files that already exist")
	f.Bool("quiet", false, "Do not show a progress bar")
	f.Duration("timeout", 30*time.Minute, "Processing timeout")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("recognize")
	input := args[0]

	if err := applyRecognizeFlags(cmd, cfg); err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	textPath, _ := cmd.Flags().GetString("text")
	pdfPath, _ := cmd.Flags().GetString("pdf-output")
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	for _, p := range []string{outputPath, textPath, pdfPath} {
		if err := checkOutput(p, overwrite); err != nil {
			return err
		}
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	recognizer, closeRecognizer, err := newRecognizer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRecognizer()

	quiet, _ := cmd.Flags().GetBool("quiet")
	progress := newProgress(quiet)

	p := pipeline.New(raster.NewPoppler(logger.WithComponent("raster")), recognizer, pipeline.Options{
		DPI:               cfg.DPI,
		Concurrency:       cfg.Concurrency,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Params:            params,
		EngineVersion:     version,
		Logger:            logger.WithComponent("pipeline"),
		Progress:          progress.update,
	})

	log.Info().
		Str("file", input).
		Str("engine", recognizer.Name()).
		Str("level", string(params.EffectiveLevel())).
		Strs("languages", params.Languages).
		Msg("starting recognition")

	start := time.Now()
	result, err := p.Process(ctx, input)
	progress.finish()
	if err != nil {
		return err
	}
	defer result.Close()

	if err := writeOutput(outputPath, []byte(result.HOCR)); err != nil {
		return err
	}

	if textPath != "" {
		doc, err := hocr.ParseHOCR([]byte(result.HOCR))
		if err != nil {
			return fmt.Errorf("failed to parse generated hOCR: %w", err)
		}
		if err := writeOutput(textPath, []byte(hocr.ExtractHOCRText(&doc))); err != nil {
			return err
		}
	}

	if pdfPath != "" {
		force, _ := cmd.Flags().GetBool("force")
		if err := writeSearchablePDF(input, pdfPath, result, force, log); err != nil {
			return err
		}
	}

	log.Info().
		Int("pages", len(result.Pages)).
		Dur("duration", time.Since(start)).
		Msg("recognition complete")
	return nil
}

// applyRecognizeFlags overrides configuration values with flags that were set.
func applyRecognizeFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	if f.Changed("engine") {
		c.Engine, _ = f.GetString("engine")
	}
	if f.Changed("helper") {
		c.HelperCommand, _ = f.GetString("helper")
	}
	if f.Changed("level") {
		c.RecognitionLevel, _ = f.GetString("level")
	}
	if f.Changed("lang") {
		c.Languages, _ = f.GetStringSlice("lang")
	}
	if f.Changed("dpi") {
		c.DPI, _ = f.GetInt("dpi")
	}
	if f.Changed("concurrency") {
		c.Concurrency, _ = f.GetInt("concurrency")
	}
	if f.Changed("rps") {
		c.RequestsPerSecond, _ = f.GetFloat64("rps")
	}
	return c.Validate()
}

// newRecognizer creates the configured engine and a function releasing it.
func newRecognizer(ctx context.Context, c *config.Config) (engine.Recognizer, func(), error) {
	switch c.Engine {
	case config.EngineGdocai:
		client, err := gdocai.NewClient(ctx, c.Google, logger.WithComponent(config.EngineGdocai))
		if err != nil {
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	case config.EngineVision:
		client, err := gvision.NewClient(ctx, c.Google.CredentialsFile, logger.WithComponent(config.EngineVision))
		if err != nil {
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	default:
		return engine.NewOcrmac(c.HelperCommand, logger.WithComponent(config.EngineOcrmac)), func() {}, nil
	}
}

// writeSearchablePDF overlays the recognized text on the input PDF, or
// builds a new PDF from the page images for image inputs.
func writeSearchablePDF(input, output string, result *pipeline.Result, force bool, log zerolog.Logger) error {
	pdfCfg := pdfocr.DefaultConfig()
	pdfCfg.DPI = float64(cfg.DPI)
	pdfCfg.Force = force
	pdfCfg.Logger = logger.WithComponent("pdfocr")

	var (
		data []byte
		err  error
	)
	if isPDF(input) {
		src, readErr := os.ReadFile(input)
		if readErr != nil {
			return fmt.Errorf("failed to read input PDF: %w", readErr)
		}
		data, err = pdfocr.ApplyOCR(src, result.HOCR, pdfCfg)
	} else {
		images := make([][]byte, 0, len(result.Document.Images))
		for _, img := range result.Document.Images {
			b, readErr := img.Bytes()
			if readErr != nil {
				return readErr
			}
			images = append(images, b)
		}
		data, err = pdfocr.AssembleWithOCR(result.HOCR, images, pdfCfg)
	}
	if err != nil {
		return fmt.Errorf("failed to create searchable PDF: %w", err)
	}

	if err := writeOutput(output, data); err != nil {
		return err
	}
	log.Info().Str("output", output).Msg("searchable PDF created")
	return nil
}

func isPDF(path string) bool {
	ext, err := raster.ValidateFormat(path)
	return err == nil && ext == ".pdf"
}

// checkOutput refuses to replace an existing file unless overwrite is set.
func checkOutput(path string, overwrite bool) error {
	if path == "" || overwrite {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("output file %s already exists, use --overwrite to replace it", path)
	}
	return nil
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// progress draws a per-page progress bar on stderr once the page count is
// known.
type progress struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

func newProgress(quiet bool) *progress {
	return &progress{quiet: quiet}
}

func (p *progress) update(done, total int) {
	if p.quiet {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("recognizing pages"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	p.bar.Set(done)
}

func (p *progress) finish() {
	if p.bar != nil {
		p.bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
}
