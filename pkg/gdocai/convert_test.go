package gdocai

import (
	"math"
	"strings"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrbridge/pkg/ocrbridge"
)

func anchor(start, end int64) *documentaipb.Document_TextAnchor {
	return &documentaipb.Document_TextAnchor{
		TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
	}
}

func normalizedPoly(x1, y1, x2, y2 float32) *documentaipb.BoundingPoly {
	return &documentaipb.BoundingPoly{NormalizedVertices: []*documentaipb.NormalizedVertex{
		{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
	}}
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestDocumentAnnotations(t *testing.T) {
	doc := &documentaipb.Document{
		Text: "Hello World\n",
		Pages: []*documentaipb.Document_Page{{
			Dimension: &documentaipb.Document_Page_Dimension{Width: 1000, Height: 800, Unit: "pixels"},
			Tokens: []*documentaipb.Document_Page_Token{
				{Layout: &documentaipb.Document_Page_Layout{
					TextAnchor:   anchor(0, 6),
					Confidence:   0.97,
					BoundingPoly: normalizedPoly(0.1, 0.15, 0.3, 0.2),
				}},
				{Layout: &documentaipb.Document_Page_Layout{
					TextAnchor: anchor(6, 12),
					Confidence: 0.5,
					BoundingPoly: &documentaipb.BoundingPoly{Vertices: []*documentaipb.Vertex{
						{X: 350, Y: 120}, {X: 550, Y: 120}, {X: 550, Y: 160}, {X: 350, Y: 160},
					}},
				}},
				{Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor(0, 5)}},
			},
		}},
	}

	got := DocumentAnnotations(doc)
	if len(got) != 2 {
		t.Fatalf("annotations = %d, want 2 (token without geometry skipped)", len(got))
	}

	if got[0].Text != "Hello" || got[1].Text != "World" {
		t.Errorf("texts = %q, %q", got[0].Text, got[1].Text)
	}
	if !closeTo(got[0].Confidence, 0.97) {
		t.Errorf("confidence = %v", got[0].Confidence)
	}

	b := got[0].BBox
	if !closeTo(b.X, 0.1) || !closeTo(b.Y, 0.8) || !closeTo(b.W, 0.2) || !closeTo(b.H, 0.05) {
		t.Errorf("normalized box = %v, want (0.1, 0.8, 0.2, 0.05)", b)
	}

	// Pixel vertices normalized by the page dimension and flipped.
	if px := ocrbridge.Transform(got[1].BBox, 1000, 800); px != (ocrbridge.PixelBox{XMin: 350, YMin: 120, XMax: 550, YMax: 160}) {
		t.Errorf("round trip through Transform = %+v", px)
	}
}

func TestDocumentAnnotationsNil(t *testing.T) {
	if got := DocumentAnnotations(nil); got != nil {
		t.Errorf("DocumentAnnotations(nil) = %v", got)
	}
}

func TestAnchorTextClampsSegments(t *testing.T) {
	text := []rune("héllo")
	if got := anchorText(anchor(3, 99), text); got != "lo" {
		t.Errorf("anchorText = %q, want lo", got)
	}
	if got := anchorText(anchor(4, 2), text); got != "" {
		t.Errorf("anchorText with inverted segment = %q", got)
	}
	if got := anchorText(nil, text); got != "" {
		t.Errorf("anchorText(nil) = %q", got)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{ProjectID: "p", Location: "eu", ProcessorID: "abc"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.processorName(); got != "projects/p/locations/eu/processors/abc" {
		t.Errorf("processorName = %q", got)
	}
	if got := cfg.endpoint(); got != "eu-documentai.googleapis.com:443" {
		t.Errorf("endpoint = %q", got)
	}
	if err := (Config{Location: "us"}).Validate(); err == nil || !strings.Contains(err.Error(), "project_id") {
		t.Errorf("Validate without project = %v", err)
	}
}

func TestResponseJSON(t *testing.T) {
	out, err := responseJSON(&documentaipb.Document{Text: "abc"})
	if err != nil {
		t.Fatalf("responseJSON: %v", err)
	}
	if !strings.Contains(string(out), `"abc"`) {
		t.Errorf("responseJSON = %s", out)
	}
}
