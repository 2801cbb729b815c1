package hocr

import (
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/hocr.tmpl
var templateFS embed.FS

var hocrTemplate = template.Must(template.New("hocr.tmpl").Funcs(template.FuncMap{
	"xml":  escapeXML,
	"trim": strings.TrimSpace,
}).ParseFS(templateFS, "templates/hocr.tmpl"))

// GenerateHOCRDocument creates an hOCR XHTML document from the HOCR struct.
// All text and attribute values are XML-escaped, so the output is well-formed
// XML for any input.
func GenerateHOCRDocument(doc *HOCR) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("HOCR document is nil")
	}

	var buf bytes.Buffer
	if err := hocrTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("error rendering hOCR template: %w", err)
	}

	return buf.String(), nil
}

// escapeXML escapes & < > " ' and replaces characters that are not legal in
// XML 1.0 with U+FFFD.
func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
