// Package extract turns uploaded study files into plain text.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	officelicense "github.com/unidoc/unioffice/common/license"
	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/presentation"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"learnquick/internal/domain"
)

// FileExtractor dispatches on file extension.
type FileExtractor struct{}

// NewFileExtractor registers the UniDoc metered key with both the PDF and
// the Office readers when one is given. Without a key, PDF, DOCX and PPTX
// extraction fail and plain-text formats still work.
func NewFileExtractor(licenseKey string) (*FileExtractor, error) {
	if licenseKey != "" {
		if err := license.SetMeteredKey(licenseKey); err != nil {
			return nil, fmt.Errorf("extract: set pdf license: %w", err)
		}
		if err := officelicense.SetMeteredKey(licenseKey); err != nil {
			return nil, fmt.Errorf("extract: set office license: %w", err)
		}
	}
	return &FileExtractor{}, nil
}

// Supported reports whether path has an extension Extract understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf", ".docx", ".pptx":
		return true
	default:
		return false
	}
}

// Extract reads a file and returns its text content.
func (e *FileExtractor) Extract(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(content), nil
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDOCX(path)
	case ".pptx":
		return extractPPTX(path)
	default:
		return "", fmt.Errorf("extract: %s: %w", ext, domain.ErrUnsupportedFormat)
	}
}

func extractPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := model.NewPdfReader(f)
	if err != nil {
		return "", fmt.Errorf("extract: open pdf: %w", err)
	}
	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("extract: pdf pages: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("extract: pdf page %d: %w", i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("extract: pdf page %d: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("extract: pdf page %d text: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// extractDOCX returns the document's paragraphs, one per line.
func extractDOCX(path string) (string, error) {
	doc, err := document.Open(path)
	if err != nil {
		return "", fmt.Errorf("extract: open docx: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for _, p := range doc.Paragraphs() {
		for _, r := range p.Runs() {
			sb.WriteString(r.Text())
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// extractPPTX returns the text of every slide shape, slide by slide.
func extractPPTX(path string) (string, error) {
	ppt, err := presentation.Open(path)
	if err != nil {
		return "", fmt.Errorf("extract: open pptx: %w", err)
	}
	defer ppt.Close()

	var sb strings.Builder
	for _, slide := range ppt.Slides() {
		for _, item := range slide.ExtractText().Items {
			if strings.TrimSpace(item.Text) == "" {
				continue
			}
			sb.WriteString(item.Text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
