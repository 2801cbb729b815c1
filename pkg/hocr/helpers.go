package hocr

import (
	"strings"
)

// ExtractHOCRText extracts all text from an HOCR document.
// Words of a line are joined by spaces, lines are separated by newlines and
// pages by a blank line.
func ExtractHOCRText(hocrDoc *HOCR) string {
	var builder strings.Builder

	for i, page := range hocrDoc.Pages {
		if i > 0 {
			builder.WriteString("\n")
		}
		for _, words := range page.TextLines() {
			texts := make([]string, 0, len(words))
			for _, w := range words {
				if w.Text != "" {
					texts = append(texts, w.Text)
				}
			}
			builder.WriteString(strings.Join(texts, " "))
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// TextLines groups the words of the page by line in document order.
// Words that sit outside any line form one group per parent element.
func (p Page) TextLines() [][]Word {
	var lines [][]Word
	addLines := func(ls []Line) {
		for _, l := range ls {
			lines = append(lines, l.Words)
		}
	}
	addWords := func(ws []Word) {
		if len(ws) > 0 {
			lines = append(lines, ws)
		}
	}
	addParagraphs := func(ps []Paragraph) {
		for _, para := range ps {
			addLines(para.Lines)
			addWords(para.Words)
		}
	}

	for _, area := range p.Areas {
		addParagraphs(area.Paragraphs)
		addLines(area.Lines)
		addWords(area.Words)
	}
	addParagraphs(p.Paragraphs)
	addLines(p.Lines)
	addWords(p.Words)

	return lines
}

// AllWords returns every word of the page in document order.
func (p Page) AllWords() []Word {
	var words []Word
	for _, line := range p.TextLines() {
		words = append(words, line...)
	}
	return words
}

// WordCount returns the number of words across all pages.
func (h *HOCR) WordCount() int {
	n := 0
	for _, page := range h.Pages {
		n += len(page.AllWords())
	}
	return n
}
