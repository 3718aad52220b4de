package driven

import "context"

// ExtractedText is the result of text extraction from a file.
type ExtractedText struct {
	// Text is the extracted plain text, treated as opaque UTF-8.
	Text string

	// PageCount is the number of pages, when the format has pages.
	PageCount int

	// Language is the detected language code, when known.
	Language string
}

// Extractor turns a file into plain text plus basic metadata.
// Extraction is a collaborator concern: the retrieval core treats any
// returned text as opaque UTF-8. Empty extracted text is a validation
// error, surfaced immediately and never retried.
type Extractor interface {
	// Name returns the extractor name for registry lookup and logging.
	Name() string

	// Supports reports whether the extractor handles the file extension.
	Supports(ext string) bool

	// Extract reads the file and returns its text content.
	Extract(ctx context.Context, path string) (*ExtractedText, error)
}
