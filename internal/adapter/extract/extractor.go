package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"

	"medcite/internal/domain"
	"medcite/internal/port"
)

// Extractor reads plain text out of corpus files.
// .pdf goes through the PDF text layer; .txt and .md are read as is.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md", ".markdown":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func extractPDF(path string) (text string, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer: %w", err)
	}
	return buf.String(), nil
}

// LoadDocuments walks root and extracts one document per file, sorted by path.
// The source ID is the file's base name. Files that cannot be read are
// logged and skipped.
func LoadDocuments(root string, walker port.FileWalker, extractor port.TextExtractor, logger *log.Logger) ([]domain.Document, error) {
	files, err := walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	docs := make([]domain.Document, 0, len(files))
	for _, file := range files {
		text, err := extractor.Extract(file.Path)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", file.Path, "err", err)
			continue
		}
		docs = append(docs, domain.Document{
			SourceID: filepath.Base(file.Path),
			Text:     text,
		})
	}
	return docs, nil
}
