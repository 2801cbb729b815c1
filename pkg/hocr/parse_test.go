package hocr

import (
	"reflect"
	"strings"
	"testing"
)

const tesseractSample = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN"
    "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en" lang="en">
 <head>
  <title></title>
  <meta http-equiv="Content-Type" content="text/html;charset=utf-8"/>
  <meta name='ocr-system' content='tesseract 5.3.0' />
  <meta name='ocr-capabilities' content='ocr_page ocr_carea ocr_par ocr_line ocrx_word ocrp_wconf'/>
 </head>
 <body>
  <div class='ocr_page' id='page_1' title='image "scan.png"; bbox 0 0 2480 3508; ppageno 0; scan_res 300 300'>
   <div class='ocr_carea' id='block_1_1' title="bbox 296 265 1054 330">
    <p class='ocr_par' id='par_1_1' lang='eng' title="bbox 296 265 1054 330">
     <span class='ocr_line' id='line_1_1' title="bbox 296 265 1054 330; baseline 0 -15; x_size 65; x_descenders 15; x_ascenders 17">
      <span class='ocrx_word' id='word_1_1' title='bbox 296 265 505 315; x_wconf 96'>Invoice</span>
      <span class='ocrx_word' id='word_1_2' title='bbox 532 266 1054 330; x_wconf 91.5'>#2024&amp;1</span>
     </span>
     <span class='ocr_header' id='line_1_2' title="bbox 296 340 600 380">
      <span class='ocrx_word' id='word_1_3' title='bbox 296 340 600 380; x_wconf 88'>Total</span>
     </span>
    </p>
   </div>
  </div>
 </body>
</html>`

func TestParseHOCRTesseract(t *testing.T) {
	doc, err := ParseHOCR([]byte(tesseractSample))
	if err != nil {
		t.Fatalf("ParseHOCR: %v", err)
	}

	if doc.Language != "en" {
		t.Errorf("language = %q, want en", doc.Language)
	}
	if doc.Metadata["ocr-system"] != "tesseract 5.3.0" {
		t.Errorf("ocr-system = %q", doc.Metadata["ocr-system"])
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(doc.Pages))
	}

	page := doc.Pages[0]
	if page.ImageName != "scan.png" || page.PageNumber != 1 {
		t.Errorf("page image/number = %q/%d", page.ImageName, page.PageNumber)
	}
	if page.BBox != NewBoundingBox(0, 0, 2480, 3508) {
		t.Errorf("page bbox = %v", page.BBox)
	}
	if page.Metadata["scan_res"] != "300 300" {
		t.Errorf("scan_res = %q", page.Metadata["scan_res"])
	}
	if len(page.Areas) != 1 || len(page.Areas[0].Paragraphs) != 1 {
		t.Fatalf("unexpected structure: %+v", page)
	}

	para := page.Areas[0].Paragraphs[0]
	if para.Lang != "eng" {
		t.Errorf("paragraph lang = %q", para.Lang)
	}
	if len(para.Lines) != 2 {
		t.Fatalf("lines = %d, want 2 (ocr_line and ocr_header)", len(para.Lines))
	}
	if para.Lines[0].Baseline != "0 -15" {
		t.Errorf("baseline = %q", para.Lines[0].Baseline)
	}

	words := page.AllWords()
	var texts []string
	for _, w := range words {
		texts = append(texts, w.Text)
	}
	if want := []string{"Invoice", "#2024&1", "Total"}; !reflect.DeepEqual(texts, want) {
		t.Errorf("words = %q, want %q", texts, want)
	}
	if words[1].Confidence != 92 {
		t.Errorf("fractional x_wconf = %d, want 92", words[1].Confidence)
	}
}

func TestParseHOCRWithoutPages(t *testing.T) {
	if _, err := ParseHOCR([]byte("<html><body><p>nothing</p></body></html>")); err == nil {
		t.Error("expected an error for a document without ocr_page elements")
	}
}

func TestParseHOCRLatin1(t *testing.T) {
	data := []byte("<html><head><meta http-equiv='Content-Type' content='text/html; charset=iso-8859-1'></head><body>" +
		"<div class='ocr_page' title='bbox 0 0 10 10'><span class='ocrx_word' title='bbox 1 1 5 5'>caf\xe9</span></div></body></html>")

	doc, err := ParseHOCR(data)
	if err != nil {
		t.Fatalf("ParseHOCR: %v", err)
	}
	if got := doc.Pages[0].Words[0].Text; got != "café" {
		t.Errorf("word = %q, want café", got)
	}
}

func TestParseTitle(t *testing.T) {
	tests := []struct {
		title string
		want  map[string][]string
	}{
		{
			`image "page 1.png"; bbox 1 2 3 4;  x_wconf 95 ;`,
			map[string][]string{"image": {"page 1.png"}, "bbox": {"1", "2", "3", "4"}, "x_wconf": {"95"}},
		},
		{
			`image "scan;2  final \"v2\".png"; bbox 0 0 10 20`,
			map[string][]string{"image": {`scan;2  final "v2".png`}, "bbox": {"0", "0", "10", "20"}},
		},
		{
			`image ""; ppageno 0`,
			map[string][]string{"image": {""}, "ppageno": {"0"}},
		},
		{
			`image "unterminated; bbox 1 2 3 4`,
			map[string][]string{"image": {"unterminated; bbox 1 2 3 4"}},
		},
	}
	for _, tt := range tests {
		if got := ParseTitle(tt.title); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseTitle(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestPageImageNameRoundTrip(t *testing.T) {
	for _, name := range []string{"scan 1.png", "a;b.png", "two  spaces.tif", `quote"d.png`, "café.jpg"} {
		page := Page{ID: "page_1", PageNumber: 1, ImageName: name, BBox: NewBoundingBox(0, 0, 10, 20)}
		out, err := GenerateHOCRDocument(&HOCR{Title: "t", Pages: []Page{page}})
		if err != nil {
			t.Fatalf("GenerateHOCRDocument: %v", err)
		}
		doc, err := ParseHOCR([]byte(out))
		if err != nil {
			t.Fatalf("ParseHOCR: %v", err)
		}
		got := doc.Pages[0]
		if got.ImageName != name || got.BBox != page.BBox || got.PageNumber != 1 {
			t.Errorf("round trip of %q = %q %v %d", name, got.ImageName, got.BBox, got.PageNumber)
		}
	}
}

func TestParseBoundingBoxFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  *BoundingBox
	}{
		{"bbox 10 20 30 40", &BoundingBox{10, 20, 30, 40}},
		{"bbox 10.4 20.6 30 40; x_wconf 5", &BoundingBox{10, 21, 30, 40}},
		{"bbox 10 20 30", nil},
		{"bbox a b c d", nil},
		{"x_wconf 90", nil},
	}
	for _, tt := range tests {
		got := ParseBoundingBoxFromTitle(tt.title)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseBoundingBoxFromTitle(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestExtractHOCRText(t *testing.T) {
	doc, err := ParseHOCR([]byte(tesseractSample))
	if err != nil {
		t.Fatalf("ParseHOCR: %v", err)
	}
	doc.Pages = append(doc.Pages, Page{
		ID:    "page_2",
		Words: []Word{{Text: "loose"}, {Text: ""}, {Text: "words"}},
	})

	want := "Invoice #2024&1\nTotal\n\nloose words\n"
	if got := ExtractHOCRText(&doc); got != want {
		t.Errorf("ExtractHOCRText = %q, want %q", got, want)
	}
}

func TestGenerateParseRoundTrip(t *testing.T) {
	word := Word{ID: "word_1_1", Text: `<b>"x"</b> & y`, BBox: NewBoundingBox(1, 2, 3, 4), Confidence: 77, Lang: "en"}
	in := &HOCR{
		Title:    "round trip",
		Language: "en",
		Metadata: map[string]string{"ocr-system": "test"},
		Pages: []Page{{
			ID:         "page_1",
			PageNumber: 1,
			ImageName:  "a.png",
			BBox:       NewBoundingBox(0, 0, 100, 200),
			Areas: []Area{{
				ID:   "area_1",
				BBox: NewBoundingBox(1, 2, 3, 4),
				Lines: []Line{{
					ID:       "line_1_1",
					BBox:     NewBoundingBox(1, 2, 3, 4),
					Baseline: "0 -3",
					Words:    []Word{word},
				}},
			}},
		}},
	}

	out, err := GenerateHOCRDocument(in)
	if err != nil {
		t.Fatalf("GenerateHOCRDocument: %v", err)
	}
	if !strings.HasPrefix(out, "<?xml") {
		t.Errorf("output does not start with XML declaration")
	}

	doc, err := ParseHOCR([]byte(out))
	if err != nil {
		t.Fatalf("ParseHOCR: %v", err)
	}
	if doc.Title != "round trip" || doc.Metadata["ocr-system"] != "test" {
		t.Errorf("document meta = %q %v", doc.Title, doc.Metadata)
	}
	line := doc.Pages[0].Areas[0].Lines[0]
	if line.Baseline != "0 -3" {
		t.Errorf("baseline = %q", line.Baseline)
	}
	got := line.Words[0]
	if got.Text != word.Text || got.BBox != word.BBox || got.Confidence != word.Confidence || got.Lang != word.Lang {
		t.Errorf("word = %+v, want %+v", got, word)
	}
}

func TestGenerateHOCRDocumentNil(t *testing.T) {
	if _, err := GenerateHOCRDocument(nil); err == nil {
		t.Error("expected an error for a nil document")
	}
}
