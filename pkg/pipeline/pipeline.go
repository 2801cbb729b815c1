// Package pipeline runs the full conversion of an input file to hOCR:
// format validation, rasterization, concurrent recognition and assembly.
//
// Pages are recognized concurrently, bounded by Options.Concurrency and
// throttled by Options.RequestsPerSecond. Results are stored by page
// position and assembled in page order regardless of completion order. The
// first failing page cancels the others and no partial document is produced.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gardar/ocrbridge/pkg/engine"
	"github.com/gardar/ocrbridge/pkg/ocrbridge"
	"github.com/gardar/ocrbridge/pkg/raster"
)

// DefaultConcurrency is the number of pages recognized at once.
const DefaultConcurrency = 2

// Options controls a Pipeline.
type Options struct {
	DPI               int     // PDF render resolution, raster.DefaultDPI when zero
	Concurrency       int     // pages in flight, DefaultConcurrency when zero
	RequestsPerSecond float64 // engine calls per second, unlimited when zero
	Params            engine.Params
	EngineVersion     string
	Logger            zerolog.Logger
	// Progress is called after every recognized page. Calls are serialized.
	Progress func(done, total int)
}

// Pipeline converts files with one rasterizer and one recognizer.
type Pipeline struct {
	rasterizer raster.Rasterizer
	recognizer engine.Recognizer
	opts       Options
}

// New creates a Pipeline.
func New(rasterizer raster.Rasterizer, recognizer engine.Recognizer, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.DPI <= 0 {
		opts.DPI = raster.DefaultDPI
	}
	return &Pipeline{rasterizer: rasterizer, recognizer: recognizer, opts: opts}
}

// Result is a converted document. Close it to release the rendered page
// images.
type Result struct {
	HOCR     string
	Pages    []ocrbridge.PageResult
	Metadata ocrbridge.Metadata
	Document *raster.Document
}

// Close removes temporary page images.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	return r.Document.Close()
}

// Process converts the file at path into a single hOCR document.
//
// Engine failures are returned as *ocrbridge.PageError naming the page; the
// engine's error stays matchable with errors.Is.
func (p *Pipeline) Process(ctx context.Context, path string) (*Result, error) {
	if _, err := raster.ValidateFormat(path); err != nil {
		return nil, err
	}
	if err := p.opts.Params.Validate(); err != nil {
		return nil, err
	}

	log := p.opts.Logger.With().Str("file", filepath.Base(path)).Str("engine", p.recognizer.Name()).Logger()

	doc, err := p.rasterizer.Render(ctx, path, p.opts.DPI)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize %s: %w", path, err)
	}
	log.Info().Int("pages", len(doc.Images)).Msg("rasterized input")

	pages, err := p.recognize(ctx, path, doc.Images, log)
	if err != nil {
		doc.Close()
		return nil, err
	}

	meta := ocrbridge.Metadata{
		SourceName:    filepath.Base(path),
		EngineName:    p.recognizer.Name(),
		EngineVersion: p.opts.EngineVersion,
		Capability:    string(p.opts.Params.EffectiveLevel()),
		Languages:     p.opts.Params.Languages,
	}
	out, err := ocrbridge.AssembleResults(pages, meta, ocrbridge.PageOptions{
		Languages: p.opts.Params.Languages,
		Logger:    &log,
	})
	if err != nil {
		doc.Close()
		return nil, err
	}

	log.Info().Int("pages", len(pages)).Msg("assembled hOCR document")
	return &Result{HOCR: out, Pages: pages, Metadata: meta, Document: doc}, nil
}

// recognize runs the engine on every image and returns the page results in
// image order.
func (p *Pipeline) recognize(ctx context.Context, source string, images []raster.Image, log zerolog.Logger) ([]ocrbridge.PageResult, error) {
	results := make([]ocrbridge.PageResult, len(images))

	var limiter *rate.Limiter
	if p.opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.opts.RequestsPerSecond), 1)
	}

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}

			annotations, err := p.recognizer.Recognize(gctx, img, p.opts.Params)
			if err != nil {
				return pageError(img.Page, err)
			}

			results[i] = ocrbridge.PageResult{
				Index:       img.Page,
				Width:       img.Width,
				Height:      img.Height,
				ImageName:   imageName(source, img),
				Annotations: annotations,
			}
			log.Debug().Int("page", img.Page).Int("annotations", len(annotations)).Msg("recognized page")

			if p.opts.Progress != nil {
				mu.Lock()
				done++
				p.opts.Progress(done, len(images))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// pageError attaches the page number unless the engine already did.
func pageError(page int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pe *ocrbridge.PageError
	if errors.As(err, &pe) {
		return err
	}
	return &ocrbridge.PageError{Page: page, Err: err}
}

// imageName is the name recorded on the page: the input file for image
// inputs, nothing for pages rendered into temporary files.
func imageName(source string, img raster.Image) string {
	if img.Path == source {
		return filepath.Base(source)
	}
	return ""
}
