package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gardar/ocrbridge/pkg/engine"
	"github.com/gardar/ocrbridge/pkg/hocr"
	"github.com/gardar/ocrbridge/pkg/ocrbridge"
	"github.com/gardar/ocrbridge/pkg/raster"
)

// fakeRasterizer returns n in-memory pages without touching the filesystem.
type fakeRasterizer struct {
	pages int
	err   error
	dpi   int
}

func (f *fakeRasterizer) Render(_ context.Context, path string, dpi int) (*raster.Document, error) {
	f.dpi = dpi
	if f.err != nil {
		return nil, f.err
	}
	doc := &raster.Document{Source: path}
	for i := 1; i <= f.pages; i++ {
		doc.Images = append(doc.Images, raster.Image{
			Page:   i,
			Path:   fmt.Sprintf("/tmp/page-%d.png", i),
			Width:  1000,
			Height: 800,
			Format: "png",
		})
	}
	return doc, nil
}

// fakeRecognizer reports one annotation naming the page. Earlier pages take
// longer so completion order is the reverse of page order.
type fakeRecognizer struct {
	pages  int
	failOn int
	err    error

	mu     sync.Mutex
	params []engine.Params
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Recognize(ctx context.Context, img raster.Image, params engine.Params) ([]ocrbridge.Annotation, error) {
	f.mu.Lock()
	f.params = append(f.params, params)
	f.mu.Unlock()

	select {
	case <-time.After(time.Duration(f.pages-img.Page) * 5 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if img.Page == f.failOn {
		return nil, f.err
	}
	return []ocrbridge.Annotation{{
		Text:       fmt.Sprintf("page%d", img.Page),
		Confidence: 0.9,
		BBox:       ocrbridge.NormalizedBox{X: 0.1, Y: 0.1, W: 0.2, H: 0.1},
	}}, nil
}

func TestProcessPreservesPageOrder(t *testing.T) {
	rec := &fakeRecognizer{pages: 5}
	var progress []int
	p := New(&fakeRasterizer{pages: 5}, rec, Options{
		Concurrency: 5,
		Params:      engine.Params{Level: engine.LevelAccurate, Languages: []string{"en-US"}},
		Logger:      zerolog.Nop(),
		Progress:    func(done, total int) { progress = append(progress, done) },
	})

	res, err := p.Process(context.Background(), "scan.pdf")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	defer res.Close()

	for i, page := range res.Pages {
		if page.Index != i+1 {
			t.Errorf("result %d has index %d", i, page.Index)
		}
	}

	last := -1
	for n := 1; n <= 5; n++ {
		idx := strings.Index(res.HOCR, fmt.Sprintf(`id="page_%d"`, n))
		if idx <= last {
			t.Fatalf("page_%d out of order in document", n)
		}
		last = idx
	}

	doc, err := hocr.ParseHOCR([]byte(res.HOCR))
	if err != nil {
		t.Fatalf("ParseHOCR: %v", err)
	}
	if got := hocr.ExtractHOCRText(&doc); got != "page1\n\npage2\n\npage3\n\npage4\n\npage5\n" {
		t.Errorf("text = %q", got)
	}
	if doc.Metadata["ocr-system"] != "fake" || doc.Metadata["ocr-recognition-level"] != "accurate" {
		t.Errorf("metadata = %v", doc.Metadata)
	}
	if res.Metadata.SourceName != "scan.pdf" {
		t.Errorf("source name = %q", res.Metadata.SourceName)
	}
	if len(progress) != 5 || progress[4] != 5 {
		t.Errorf("progress = %v", progress)
	}
	for _, params := range rec.params {
		if params.Level != engine.LevelAccurate || len(params.Languages) != 1 {
			t.Errorf("recognizer got params %+v", params)
		}
	}
}

func TestProcessDefaultsDPI(t *testing.T) {
	r := &fakeRasterizer{pages: 1}
	res, err := New(r, &fakeRecognizer{pages: 1}, Options{Logger: zerolog.Nop()}).Process(context.Background(), "a.png")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	defer res.Close()
	if r.dpi != raster.DefaultDPI {
		t.Errorf("dpi = %d, want %d", r.dpi, raster.DefaultDPI)
	}
}

func TestProcessPageErrorKeepsIdentity(t *testing.T) {
	for _, sentinel := range []error{ocrbridge.ErrEngineExecution, ocrbridge.ErrUnsupportedCapability} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			rec := &fakeRecognizer{pages: 4, failOn: 3, err: fmt.Errorf("%w: boom", sentinel)}
			p := New(&fakeRasterizer{pages: 4}, rec, Options{Concurrency: 2, Logger: zerolog.Nop()})

			res, err := p.Process(context.Background(), "scan.pdf")
			if res != nil {
				t.Errorf("partial result returned: %+v", res)
			}
			if !errors.Is(err, sentinel) {
				t.Fatalf("error = %v, want %v", err, sentinel)
			}
			var pageErr *ocrbridge.PageError
			if !errors.As(err, &pageErr) || pageErr.Page != 3 {
				t.Errorf("error = %v, want *PageError for page 3", err)
			}
			if !strings.Contains(err.Error(), "page 3") {
				t.Errorf("message %q does not name the page", err.Error())
			}
		})
	}
}

func TestProcessKeepsEnginePageError(t *testing.T) {
	engineErr := &ocrbridge.PageError{Page: 2, Annotation: 7, Err: ocrbridge.ErrEngineExecution}
	rec := &fakeRecognizer{pages: 2, failOn: 2, err: engineErr}

	_, err := New(&fakeRasterizer{pages: 2}, rec, Options{Logger: zerolog.Nop()}).Process(context.Background(), "scan.pdf")
	var pageErr *ocrbridge.PageError
	if !errors.As(err, &pageErr) || pageErr.Annotation != 7 {
		t.Errorf("error = %v, want the engine's page error", err)
	}
}

func TestProcessRejectsUnsupportedFormat(t *testing.T) {
	_, err := New(&fakeRasterizer{pages: 1}, &fakeRecognizer{pages: 1}, Options{}).Process(context.Background(), "notes.docx")
	if !errors.Is(err, ocrbridge.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestProcessRejectsInvalidParams(t *testing.T) {
	opts := Options{Params: engine.Params{Languages: []string{"not a tag"}}}
	_, err := New(&fakeRasterizer{pages: 1}, &fakeRecognizer{pages: 1}, opts).Process(context.Background(), "a.png")
	if !errors.Is(err, engine.ErrInvalidParams) {
		t.Errorf("error = %v, want ErrInvalidParams", err)
	}
}

func TestProcessRasterizerError(t *testing.T) {
	boom := errors.New("pdftoppm missing")
	_, err := New(&fakeRasterizer{err: boom}, &fakeRecognizer{}, Options{}).Process(context.Background(), "a.pdf")
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want rasterizer error", err)
	}
}

func TestProcessEmptyDocument(t *testing.T) {
	_, err := New(&fakeRasterizer{pages: 0}, &fakeRecognizer{}, Options{}).Process(context.Background(), "a.pdf")
	if !errors.Is(err, ocrbridge.ErrInvalidDocument) {
		t.Errorf("error = %v, want ErrInvalidDocument", err)
	}
}

func TestProcessRateLimited(t *testing.T) {
	start := time.Now()
	res, err := New(&fakeRasterizer{pages: 3}, &fakeRecognizer{pages: 3}, Options{
		Concurrency:       3,
		RequestsPerSecond: 20,
		Logger:            zerolog.Nop(),
	}).Process(context.Background(), "a.pdf")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	defer res.Close()

	// Burst of one: the third call waits for two refills of 50ms.
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("three calls at 20/s finished in %v", elapsed)
	}
}

func TestImageName(t *testing.T) {
	if got := imageName("/in/scan.png", raster.Image{Path: "/in/scan.png"}); got != "scan.png" {
		t.Errorf("image input name = %q", got)
	}
	if got := imageName("/in/doc.pdf", raster.Image{Path: "/tmp/x/page-1.png"}); got != "" {
		t.Errorf("rendered page name = %q", got)
	}
}
