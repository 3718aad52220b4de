// Package extractors holds text extraction implementations and a registry
// that routes files to the right extractor by extension.
package extractors

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
	pdfextract "github.com/lexquery/lexquery-cli/internal/extractors/pdf"
	"github.com/lexquery/lexquery-cli/internal/extractors/plaintext"
)

// Registry routes file paths to extractors by extension.
type Registry struct {
	extractors []driven.Extractor
}

// NewRegistry creates a registry with the given extractors. The first
// extractor that supports an extension wins.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// NewDefaultRegistry creates a registry with all built-in extractors.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		plaintext.New(),
		pdfextract.New(),
	)
}

// ForPath returns the extractor for the file's extension.
func (r *Registry) ForPath(path string) (driven.Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range r.extractors {
		if e.Supports(ext) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no extractor for %q files: %w", ext, domain.ErrUnsupportedType)
}
