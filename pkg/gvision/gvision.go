// Package gvision recognizes page images with the Google Cloud Vision API.
//
// Client implements engine.Recognizer. The fast level uses TEXT_DETECTION;
// every other level uses DOCUMENT_TEXT_DETECTION. Word polygons come back in
// pixels with a top-left origin and are normalized by the page size.
package gvision

import (
	"context"
	"fmt"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/gardar/ocrbridge/pkg/engine"
	"github.com/gardar/ocrbridge/pkg/ocrbridge"
	"github.com/gardar/ocrbridge/pkg/raster"
)

// MaxImageBytes is the largest inline image the API accepts.
const MaxImageBytes = 20 * 1024 * 1024

// Client wraps an ImageAnnotatorClient.
type Client struct {
	client *vision.ImageAnnotatorClient
	logger zerolog.Logger
}

// NewClient creates a Vision client. Credentials are taken from
// credentialsFile when set, then GOOGLE_CREDENTIALS (inline JSON), then
// application default credentials.
func NewClient(ctx context.Context, credentialsFile string, logger zerolog.Logger) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	case os.Getenv("GOOGLE_CREDENTIALS") != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(os.Getenv("GOOGLE_CREDENTIALS"))))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vision client: %w", err)
	}
	return &Client{client: client, logger: logger}, nil
}

// Close closes the underlying Vision client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Name implements engine.Recognizer.
func (c *Client) Name() string { return "gvision" }

// Recognize implements engine.Recognizer.
func (c *Client) Recognize(ctx context.Context, img raster.Image, params engine.Params) ([]ocrbridge.Annotation, error) {
	const op = "Recognize"

	if err := params.Validate(); err != nil {
		return nil, err
	}
	level := params.EffectiveLevel()
	if level == engine.LevelLiveText {
		return nil, engine.WrapError(c.Name(), op,
			fmt.Errorf("%w: livetext is only available with ocrmac", ocrbridge.ErrUnsupportedCapability), "")
	}

	content, err := img.Bytes()
	if err != nil {
		return nil, err
	}
	if len(content) > MaxImageBytes {
		return nil, engine.WrapError(c.Name(), op,
			fmt.Errorf("%w: image exceeds %d bytes", ocrbridge.ErrEngineExecution, MaxImageBytes),
			fmt.Sprintf("page %d is %d bytes", img.Page, len(content)))
	}

	resp, err := c.client.BatchAnnotateImages(ctx, NewRequest(content, level, params.Languages))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, engine.WrapError(c.Name(), op,
			fmt.Errorf("%w: Vision API call failed: %v", ocrbridge.ErrEngineExecution, err), "")
	}
	if len(resp.GetResponses()) == 0 {
		return nil, engine.WrapError(c.Name(), op,
			fmt.Errorf("%w: no response from Vision API", ocrbridge.ErrEngineExecution), "")
	}

	imgResp := resp.GetResponses()[0]
	if imgResp.GetError() != nil {
		return nil, engine.WrapError(c.Name(), op,
			fmt.Errorf("%w: Vision API error: %s", ocrbridge.ErrEngineExecution, imgResp.GetError().GetMessage()), "")
	}

	annotations := ResponseAnnotations(imgResp, img.Width, img.Height)
	c.logger.Debug().Int("page", img.Page).Int("annotations", len(annotations)).Msg("vision finished")
	return annotations, nil
}

// NewRequest builds the annotate request for one image.
func NewRequest(content []byte, level engine.RecognitionLevel, languages []string) *visionpb.BatchAnnotateImagesRequest {
	feature := visionpb.Feature_DOCUMENT_TEXT_DETECTION
	if level == engine.LevelFast {
		feature = visionpb.Feature_TEXT_DETECTION
	}

	req := &visionpb.AnnotateImageRequest{
		Image:    &visionpb.Image{Content: content},
		Features: []*visionpb.Feature{{Type: feature}},
	}
	if len(languages) > 0 {
		req.ImageContext = &visionpb.ImageContext{LanguageHints: languages}
	}
	return &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{req}}
}

// ResponseAnnotations converts the words of a response into annotations in
// reading order. The structured full text annotation is preferred; plain
// text annotations (minus the leading whole-text entry) are the fallback.
// width and height are used when the response carries no page size.
func ResponseAnnotations(resp *visionpb.AnnotateImageResponse, width, height int) []ocrbridge.Annotation {
	var annotations []ocrbridge.Annotation

	if full := resp.GetFullTextAnnotation(); full != nil && len(full.GetPages()) > 0 {
		for _, page := range full.GetPages() {
			w, h := float64(page.GetWidth()), float64(page.GetHeight())
			if w <= 0 || h <= 0 {
				w, h = float64(width), float64(height)
			}
			for _, block := range page.GetBlocks() {
				for _, para := range block.GetParagraphs() {
					for _, word := range para.GetWords() {
						box, ok := normalizedBox(word.GetBoundingBox(), w, h)
						if !ok {
							continue
						}
						annotations = append(annotations, ocrbridge.Annotation{
							Text:       wordText(word),
							Confidence: float64(word.GetConfidence()),
							BBox:       box,
						})
					}
				}
			}
		}
		return annotations
	}

	texts := resp.GetTextAnnotations()
	if len(texts) < 2 {
		return nil
	}
	for _, entity := range texts[1:] {
		box, ok := normalizedBox(entity.GetBoundingPoly(), float64(width), float64(height))
		if !ok {
			continue
		}
		confidence := float64(entity.GetConfidence())
		if confidence == 0 {
			// TEXT_DETECTION leaves word confidence unset.
			confidence = 1
		}
		annotations = append(annotations, ocrbridge.Annotation{
			Text:       entity.GetDescription(),
			Confidence: confidence,
			BBox:       box,
		})
	}
	return annotations
}

func wordText(word *visionpb.Word) string {
	var b strings.Builder
	for _, s := range word.GetSymbols() {
		b.WriteString(s.GetText())
	}
	return b.String()
}

// normalizedBox returns the extent of the polygon as a normalized,
// bottom-left-origin box.
func normalizedBox(poly *visionpb.BoundingPoly, width, height float64) (ocrbridge.NormalizedBox, bool) {
	var xs, ys []float64
	switch {
	case len(poly.GetNormalizedVertices()) > 0:
		for _, v := range poly.GetNormalizedVertices() {
			xs = append(xs, float64(v.GetX()))
			ys = append(ys, float64(v.GetY()))
		}
	case len(poly.GetVertices()) > 0 && width > 0 && height > 0:
		for _, v := range poly.GetVertices() {
			xs = append(xs, float64(v.GetX())/width)
			ys = append(ys, float64(v.GetY())/height)
		}
	default:
		return ocrbridge.NormalizedBox{}, false
	}

	return ocrbridge.FromTopLeftExtent(xs, ys)
}
