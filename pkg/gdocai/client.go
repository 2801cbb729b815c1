package gdocai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/gardar/ocrbridge/pkg/engine"
	"github.com/gardar/ocrbridge/pkg/ocrbridge"
	"github.com/gardar/ocrbridge/pkg/raster"
)

// Client sends page images to a Document AI OCR processor.
type Client struct {
	cfg    Config
	client *documentai.DocumentProcessorClient
	logger zerolog.Logger
}

// NewClient creates a Document AI client for the configured processor.
// Without a credentials file the client falls back to application default
// credentials.
func NewClient(ctx context.Context, cfg Config, logger zerolog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithEndpoint(cfg.endpoint())}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}

	return &Client{cfg: cfg, client: client, logger: logger}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Name implements engine.Recognizer.
func (c *Client) Name() string { return "gdocai" }

// Recognize implements engine.Recognizer. Languages are passed as OCR hints;
// the LiveText level is not available.
func (c *Client) Recognize(ctx context.Context, img raster.Image, params engine.Params) ([]ocrbridge.Annotation, error) {
	const op = "Recognize"

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.EffectiveLevel() == engine.LevelLiveText {
		return nil, engine.WrapError(c.Name(), op,
			fmt.Errorf("%w: livetext is only available with ocrmac", ocrbridge.ErrUnsupportedCapability), "")
	}

	content, err := img.Bytes()
	if err != nil {
		return nil, err
	}

	doc, err := c.ProcessDocument(ctx, content, mimeType(img.Format), params.Languages)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, engine.WrapError(c.Name(), op, fmt.Errorf("%w: %v", ocrbridge.ErrEngineExecution, err),
			fmt.Sprintf("page %d", img.Page))
	}

	if c.cfg.DebugDir != "" {
		c.dumpResponse(doc, img.Page)
	}

	annotations := DocumentAnnotations(doc)
	c.logger.Debug().
		Int("page", img.Page).
		Int("chars", len(doc.GetText())).
		Int("annotations", len(annotations)).
		Msg("document AI finished")
	return annotations, nil
}

// ProcessDocument sends raw file content to the processor and returns the
// Document proto response.
func (c *Client) ProcessDocument(ctx context.Context, content []byte, mime string, languages []string) (*documentaipb.Document, error) {
	req := &documentaipb.ProcessRequest{
		Name: c.cfg.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mime,
			},
		},
		SkipHumanReview: true,
	}
	if len(languages) > 0 {
		req.ProcessOptions = &documentaipb.ProcessOptions{
			OcrConfig: &documentaipb.OcrConfig{
				Hints: &documentaipb.OcrConfig_Hints{LanguageHints: languages},
			},
		}
	}

	resp, err := c.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	return resp.GetDocument(), nil
}

// dumpResponse writes the raw response of one page to the debug directory.
func (c *Client) dumpResponse(doc *documentaipb.Document, page int) {
	out, err := responseJSON(doc)
	if err != nil {
		c.logger.Warn().Err(err).Int("page", page).Msg("failed to encode Document AI response")
		return
	}
	path := filepath.Join(c.cfg.DebugDir, fmt.Sprintf("gdocai-page-%d.json", page))
	if err := os.WriteFile(path, out, 0o644); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("failed to write Document AI response")
		return
	}
	c.logger.Debug().Str("path", path).Msg("wrote Document AI response")
}

func mimeType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "tiff":
		return "image/tiff"
	case "pdf":
		return "application/pdf"
	default:
		return "image/png"
	}
}
