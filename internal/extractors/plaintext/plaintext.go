// Package plaintext provides a text extractor for plain-text formats.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// supportedExtensions lists the plain-text extensions handled here.
var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".log":      true,
}

// Extractor reads plain-text files as-is.
type Extractor struct{}

// New creates a plain-text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// Supports reports whether the extractor handles the file extension.
func (e *Extractor) Supports(ext string) bool {
	return supportedExtensions[strings.ToLower(ext)]
}

// Extract reads the file and returns its text content.
func (e *Extractor) Extract(ctx context.Context, path string) (*driven.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("file %s contains no text: %w", path, domain.ErrInvalidInput)
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("file %s is not valid UTF-8: %w", path, domain.ErrUnsupportedType)
	}

	return &driven.ExtractedText{Text: text}, nil
}
