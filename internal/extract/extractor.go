// Package extract turns knowledge-base files into article title and body text.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is the text content of an imported file.
type Document struct {
	Title string
	Body  string
}

// Extractor extracts article text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot) has a dedicated reader.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".xlsx", ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// Extract reads the file at path and returns its title and body. Markdown
// files use their first level-one heading as title; everything else is
// titled after the file name.
func (e *Extractor) Extract(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	body, err := e.ExtractBytes(content, ext)
	if err != nil {
		return nil, err
	}

	doc := &Document{Title: titleFromFilename(path), Body: body}
	if ext == ".md" || ext == ".markdown" {
		if title, rest, ok := splitMarkdownTitle(body); ok {
			doc.Title = title
			doc.Body = rest
		}
	}
	doc.Body = strings.TrimSpace(doc.Body)
	return doc, nil
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Unknown extensions are read as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		return extractPlain(content), nil
	}
}

// titleFromFilename turns "vpn_setup-guide.pdf" into "vpn setup guide".
func titleFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}
