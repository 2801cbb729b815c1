package hocr

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

// hOCR classes that are treated as lines. Tesseract emits the last three for
// headings, captions and floating text.
var lineClasses = []string{"ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat"}

// ParseHOCR converts raw hOCR data into a structured HOCR object.
// It accepts both the documents produced by GenerateHOCRDocument and hOCR
// written by other engines such as Tesseract.
func ParseHOCR(data []byte) (HOCR, error) {
	result := HOCR{Metadata: make(map[string]string)}

	decoded, err := decodeCharset(data)
	if err != nil {
		return result, err
	}

	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return result, err
	}

	extractDocumentMeta(&result, doc)

	for _, n := range collect(doc, "ocr_page") {
		result.Pages = append(result.Pages, parsePage(n))
	}

	if len(result.Pages) == 0 {
		return result, fmt.Errorf("no ocr_page elements found in HOCR data")
	}
	return result, nil
}

// decodeCharset converts Latin-1 documents to UTF-8, based on the declared charset.
func decodeCharset(data []byte) ([]byte, error) {
	lower := bytes.ToLower(data[:min(len(data), 1024)])
	idx := bytes.Index(lower, []byte("charset="))
	if idx < 0 {
		return data, nil
	}
	fields := strings.FieldsFunc(string(lower[idx+len("charset="):]), func(r rune) bool {
		return r == '"' || r == ';' || r == '\'' || r == '>' || r == ' ' || r == '/'
	})
	if len(fields) == 0 {
		return data, nil
	}
	switch enc := fields[0]; enc {
	case "iso-8859-1", "latin1", "latin-1", "windows-1252":
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", enc, err)
		}
		return decoded, nil
	}
	return data, nil
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: `image "scan 1.png"; bbox 100 200 300 400; x_wconf 95`
// Double-quoted values are kept whole, so they may contain spaces and
// semicolons.
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	var fields []string
	var field strings.Builder
	inField := false

	flushField := func() {
		if inField {
			fields = append(fields, field.String())
			field.Reset()
			inField = false
		}
	}
	flushProperty := func() {
		flushField()
		if len(fields) > 0 {
			result[fields[0]] = fields[1:]
		}
		fields = nil
	}

	for i := 0; i < len(title); i++ {
		c := title[i]
		switch {
		case c == '"':
			end := closingQuote(title, i)
			field.WriteString(unquote(title[i : end+1]))
			inField = true
			i = end
		case c == ';':
			flushProperty()
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flushField()
		default:
			field.WriteByte(c)
			inField = true
		}
	}
	flushProperty()
	return result
}

// closingQuote returns the index of the quote ending the string that opens
// at start, or the last index when it is unterminated.
func closingQuote(s string, start int) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(s) - 1
}

// unquote decodes a quoted title value, falling back to stripping the quotes.
func unquote(quoted string) string {
	if v, err := strconv.Unquote(quoted); err == nil {
		return v
	}
	return strings.Trim(quoted, `"`)
}

// ParseBoundingBoxFromTitle extracts a bounding box from a title string
// Returns nil if the title has no usable bbox property
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	bbox, ok := ParseTitle(title)["bbox"]
	if !ok || len(bbox) < 4 {
		return nil
	}
	var coords [4]int
	for i := range coords {
		v, err := parseNumber(bbox[i])
		if err != nil {
			return nil
		}
		coords[i] = v
	}
	result := NewBoundingBox(coords[0], coords[1], coords[2], coords[3])
	return &result
}

// parseNumber accepts integers and decimals, rounding the latter.
func parseNumber(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

// extractDocumentMeta extracts document-level metadata from the html and head elements
func extractDocumentMeta(result *HOCR, doc *html.Node) {
	if root := findElement(doc, "html"); root != nil {
		if lang := attr(root, "xml:lang"); lang != "" {
			result.Language = lang
		} else if lang := attr(root, "lang"); lang != "" {
			result.Language = lang
		}
	}

	head := findElement(doc, "head")
	if head == nil {
		return
	}

	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "title":
			result.Title = textContent(c)
		case "meta":
			name, content := attr(c, "name"), attr(c, "content")
			if name == "" || content == "" {
				continue
			}
			switch {
			case name == "description":
				result.Description = content
			case name == "dc.language":
				result.Language = content
			case strings.HasPrefix(name, "ocr-"):
				result.Metadata[name] = content
			}
		}
	}
}

func parsePage(n *html.Node) Page {
	page := Page{
		ID:       attr(n, "id"),
		Lang:     attr(n, "lang"),
		Metadata: make(map[string]string),
	}

	title := attr(n, "title")
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		page.BBox = *bbox
	}
	for k, v := range ParseTitle(title) {
		switch k {
		case "bbox":
		case "image":
			if len(v) > 0 {
				page.ImageName = strings.Join(v, " ")
			}
		case "ppageno":
			if len(v) > 0 {
				if no, err := strconv.Atoi(v[0]); err == nil {
					page.PageNumber = no + 1
				}
			}
		default:
			page.Metadata[k] = strings.Join(v, " ")
		}
	}

	for _, child := range collect(n, append([]string{"ocr_carea", "ocrx_block", "ocr_par", "ocrx_word"}, lineClasses...)...) {
		switch {
		case hasClass(child, "ocr_carea", "ocrx_block"):
			page.Areas = append(page.Areas, parseArea(child))
		case hasClass(child, "ocr_par"):
			page.Paragraphs = append(page.Paragraphs, parseParagraph(child))
		case hasClass(child, lineClasses...):
			page.Lines = append(page.Lines, parseLine(child))
		default:
			page.Words = append(page.Words, parseWord(child))
		}
	}
	return page
}

func parseArea(n *html.Node) Area {
	area := Area{ID: attr(n, "id"), Lang: attr(n, "lang")}
	area.BBox, area.Metadata = parseElementTitle(attr(n, "title"))

	for _, child := range collect(n, append([]string{"ocr_par", "ocrx_word"}, lineClasses...)...) {
		switch {
		case hasClass(child, "ocr_par"):
			area.Paragraphs = append(area.Paragraphs, parseParagraph(child))
		case hasClass(child, lineClasses...):
			area.Lines = append(area.Lines, parseLine(child))
		default:
			area.Words = append(area.Words, parseWord(child))
		}
	}
	return area
}

func parseParagraph(n *html.Node) Paragraph {
	para := Paragraph{ID: attr(n, "id"), Lang: attr(n, "lang")}
	para.BBox, para.Metadata = parseElementTitle(attr(n, "title"))

	for _, child := range collect(n, append([]string{"ocrx_word"}, lineClasses...)...) {
		if hasClass(child, lineClasses...) {
			para.Lines = append(para.Lines, parseLine(child))
		} else {
			para.Words = append(para.Words, parseWord(child))
		}
	}
	return para
}

func parseLine(n *html.Node) Line {
	line := Line{ID: attr(n, "id"), Lang: attr(n, "lang")}
	line.BBox, line.Metadata = parseElementTitle(attr(n, "title"))
	if baseline, ok := line.Metadata["baseline"]; ok {
		line.Baseline = baseline
		delete(line.Metadata, "baseline")
	}

	for _, child := range collect(n, "ocrx_word") {
		line.Words = append(line.Words, parseWord(child))
	}
	return line
}

func parseWord(n *html.Node) Word {
	word := Word{ID: attr(n, "id"), Lang: attr(n, "lang"), Text: textContent(n)}
	word.BBox, word.Metadata = parseElementTitle(attr(n, "title"))

	if conf, ok := word.Metadata["x_wconf"]; ok {
		if v, err := parseNumber(conf); err == nil {
			word.Confidence = v
		}
		delete(word.Metadata, "x_wconf")
	}
	if lang, ok := word.Metadata["lang"]; ok {
		word.Lang = lang
		delete(word.Metadata, "lang")
	}
	return word
}

// parseElementTitle returns the bbox and the remaining title properties.
func parseElementTitle(title string) (BoundingBox, map[string]string) {
	var box BoundingBox
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		box = *bbox
	}
	props := make(map[string]string)
	for k, v := range ParseTitle(title) {
		if k != "bbox" {
			props[k] = strings.Join(v, " ")
		}
	}
	return box, props
}

// collect returns the outermost descendants of n carrying one of the classes.
// Matched nodes are not descended into.
func collect(n *html.Node, classes ...string) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && hasClass(c, classes...) {
				found = append(found, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return found
}

func hasClass(n *html.Node, classes ...string) bool {
	for _, class := range strings.Fields(attr(n, "class")) {
		for _, want := range classes {
			if class == want {
				return true
			}
		}
	}
	return false
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// textContent gets all text from a node and its children
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return strings.TrimSpace(b.String())
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
