// Package docparse extracts plain text from uploaded or watched files.
package docparse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"go-rag-server/rag"
)

var (
	// ErrUnsupportedType indicates a file extension with no extractor.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrNoText indicates extraction succeeded but produced no text.
	ErrNoText = errors.New("no text extracted")
)

var textExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
}

// Supported reports whether name has an extension this package can read.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return textExtensions[ext] || ext == ".pdf"
}

// ParseFile reads path and returns it as a document named after the file.
func ParseFile(path string) (rag.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rag.Document{}, err
	}
	return Parse(filepath.Base(path), data)
}

// Parse extracts the text of data, choosing the extractor by name's extension.
func Parse(name string, data []byte) (rag.Document, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case textExtensions[ext]:
		return rag.Document{Name: name, Content: string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))}, nil
	case ext == ".pdf":
		text, err := PDFText(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return rag.Document{}, fmt.Errorf("%s: %w", name, err)
		}
		return rag.Document{Name: name, Content: text}, nil
	default:
		return rag.Document{}, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
	}
}

// PDFText returns the trimmed plain text of a PDF.
func PDFText(r io.ReaderAt, size int64) (text string, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("read pdf: %v", p)
		}
	}()

	rdr, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf buffer: %w", err)
	}

	text = strings.TrimSpace(buf.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
