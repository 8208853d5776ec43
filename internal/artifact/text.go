package artifact

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var (
	docxParagraph = regexp.MustCompile(`</w:p>`)
	xmlTag        = regexp.MustCompile(`<[^>]+>`)
	blankRuns     = regexp.MustCompile(`[ \t]+`)
)

// Text extracts the plain text of the document.
func (a *Artifact) Text() (string, error) {
	data, err := a.bytes()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", a.name, err)
	}

	var text string
	switch a.kind {
	case KindPDF:
		text, err = pdfText(data)
	case KindDOCX:
		text, err = docxText(data)
	default:
		err = ErrUnsupported
	}
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", a.name, err)
	}

	return strings.TrimSpace(text), nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return b.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return plainFromDocumentXML(doc.Editable().GetContent()), nil
}

// plainFromDocumentXML turns WordprocessingML into text, one line per paragraph.
func plainFromDocumentXML(content string) string {
	content = docxParagraph.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(blankRuns.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n")
}
