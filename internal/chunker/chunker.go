// Package chunker splits extracted document text into retrieval-sized
// chunks without severing named entities or legal clause boundaries.
//
// Boundary detection runs in priority order: structural boundaries
// (paragraphs, and clause markers for legal document types), then
// best-effort entity-aware boundaries from a text-classification
// collaborator, then greedy assembly of spans into chunks. When entity
// detection is unavailable the chunker falls back to sentence-boundary
// chunking, and finally to pure word-boundary chunking.
package chunker

import (
	"context"
	"sort"
	"strings"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
	"github.com/lexquery/lexquery-cli/internal/logger"
)

// DefaultTargetSize is the default number of characters per chunk.
const DefaultTargetSize = 1000

// MinChunkableSize is the input length below which boundary logic is
// bypassed and a single short-text chunk is emitted.
const MinChunkableSize = 50

// Sanity ceilings for the entity-aware pass. Exceeding either abandons
// entity detection for the document and falls back to structural
// boundaries only, bounding memory and time on pathological inputs.
const (
	maxEntityBoundaries = 1000
	maxEntityInputSize  = 2 << 20 // 2 MiB
)

// Options is the explicit per-call configuration. Every recognised option
// and its default is enumerated here.
type Options struct {
	// TargetSize is the chunk size ceiling in characters (default 1000).
	TargetSize int

	// DocumentType hints structural boundary detection. The "legal_contract"
	// and "legal" types additionally detect clause markers.
	DocumentType string

	// UseEntityDetection enables the entity-aware boundary pass when a
	// detector is configured (default true via DefaultOptions).
	UseEntityDetection bool

	// SentenceOverlap is the number of sentences repeated between
	// consecutive chunks on the sentence fallback path (default 1).
	SentenceOverlap int

	// WordOverlap is the number of words repeated between consecutive
	// chunks on the word fallback path (default 20).
	WordOverlap int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		TargetSize:         DefaultTargetSize,
		UseEntityDetection: true,
		SentenceOverlap:    1,
		WordOverlap:        20,
	}
}

// normalise fills zero values with defaults.
func (o Options) normalise() Options {
	if o.TargetSize <= 0 {
		o.TargetSize = DefaultTargetSize
	}
	if o.SentenceOverlap < 0 {
		o.SentenceOverlap = 0
	}
	if o.WordOverlap < 0 {
		o.WordOverlap = 0
	}
	return o
}

// Chunker turns document text into ordered chunk records.
// The detector is optional; without one the chunker uses the structural
// and sentence fallback paths.
type Chunker struct {
	detector driven.EntityDetector

	// windowScale is the entity window size as a multiple of TargetSize.
	windowScale int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithDetector sets the entity-detection collaborator.
func WithDetector(d driven.EntityDetector) Option {
	return func(c *Chunker) {
		c.detector = d
	}
}

// New creates a chunker.
func New(opts ...Option) *Chunker {
	c := &Chunker{windowScale: 2}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits text into ordered chunks. It never returns an empty chunk,
// and the final chunk's SpanEnd always equals len(text). Whitespace-only
// input produces no chunks.
func (c *Chunker) Chunk(ctx context.Context, text string, opts Options) []domain.Chunk {
	opts = opts.normalise()

	if strings.TrimSpace(text) == "" {
		return nil
	}

	if len(text) < MinChunkableSize {
		return []domain.Chunk{{
			ChunkIndex: 0,
			Text:       text,
			CharLength: len(text),
			Boundary:   domain.BoundaryShortText,
			SpanStart:  0,
			SpanEnd:    len(text),
		}}
	}

	if opts.UseEntityDetection && c.detector != nil {
		if chunks, ok := c.entityAwareChunks(ctx, text, opts); ok {
			return chunks
		}
		// Categorical detection failure: fall through to sentence chunking.
		logger.Warn("Entity detection failed for all windows, using sentence fallback")
	}

	return c.fallbackChunks(text, opts)
}

// entityAwareChunks runs the structural and entity passes and assembles
// chunks. The second return value is false only on categorical detection
// failure (every window errored); ceiling overruns instead degrade to
// structural boundaries and still return true.
func (c *Chunker) entityAwareChunks(ctx context.Context, text string, opts Options) ([]domain.Chunk, bool) {
	structural := structuralBoundaries(text, opts.DocumentType)

	if len(text) > maxEntityInputSize {
		logger.Warn("Input exceeds entity-detection size ceiling (%d bytes), structural only", len(text))
		return assemble(text, mergeBoundaries(text, structural), opts.TargetSize, domain.BoundaryStructural), true
	}

	entity, ok := c.detectEntityBoundaries(ctx, text, opts.TargetSize)
	if !ok {
		return nil, false
	}

	merged := mergeBoundaries(text, structural, entity)
	if len(merged) > maxEntityBoundaries {
		logger.Warn("Boundary count %d exceeds ceiling, structural only", len(merged))
		return assemble(text, mergeBoundaries(text, structural), opts.TargetSize, domain.BoundaryStructural), true
	}

	return assemble(text, merged, opts.TargetSize, domain.BoundaryEntityAware), true
}

// detectEntityBoundaries scans the text in overlapping windows and sends
// each to the entity detector. Window offsets are translated back to
// absolute positions. A single window's failure falls back to that
// window's paragraph boundaries; only when every window fails is the
// whole pass considered failed (ok=false).
func (c *Chunker) detectEntityBoundaries(ctx context.Context, text string, targetSize int) ([]int, bool) {
	windowSize := c.windowScale * targetSize
	if windowSize <= 0 {
		windowSize = c.windowScale * DefaultTargetSize
	}
	step := windowSize - windowSize/5 // ~20% overlap

	var boundaries []int
	windows := 0
	failures := 0

	for start := 0; start < len(text); start += step {
		end := start + windowSize
		if end > len(text) {
			end = len(text)
		}
		windows++

		spans, err := c.detector.DetectEntities(ctx, text[start:end])
		if err != nil {
			failures++
			logger.Debug("Entity window %d-%d failed: %v (paragraph fallback)", start, end, err)
			boundaries = append(boundaries, paragraphBoundaries(text[start:end], start)...)
			if end == len(text) {
				break
			}
			continue
		}

		for _, span := range spans {
			s, e := start+span.Start, start+span.End
			if s < 0 || e > len(text) || s >= e {
				continue // Offsets out of window bounds are detector noise.
			}
			boundaries = append(boundaries, s, e)
		}

		if end == len(text) {
			break
		}
	}

	if windows > 0 && failures == windows {
		return nil, false
	}
	return boundaries, true
}

// mergeBoundaries unions boundary sets into a sorted, de-duplicated list,
// dropping boundaries that would create whitespace-only spans so that
// separator runs stay attached to neighbouring content.
func mergeBoundaries(text string, sets ...[]int) []int {
	seen := make(map[int]bool)
	for _, set := range sets {
		for _, b := range set {
			if b > 0 && b < len(text) {
				seen[b] = true
			}
		}
	}

	all := make([]int, 0, len(seen)+2)
	all = append(all, 0)
	for b := range seen {
		all = append(all, b)
	}
	all = append(all, len(text))
	sort.Ints(all)

	// Keep a boundary only if the span before it has content.
	kept := all[:1]
	for _, b := range all[1:] {
		prev := kept[len(kept)-1]
		if b == prev {
			continue
		}
		if strings.TrimSpace(text[prev:b]) == "" && b != len(text) {
			continue
		}
		kept = append(kept, b)
	}
	if kept[len(kept)-1] != len(text) {
		kept = append(kept, len(text))
	}
	return kept
}

// assemble walks the sorted boundary list and greedily accumulates spans
// into chunks of at most targetSize characters. A single span longer than
// targetSize is split at whitespace and its pieces tagged word_split.
func assemble(text string, boundaries []int, targetSize int, kind domain.BoundaryKind) []domain.Chunk {
	var chunks []domain.Chunk
	index := 0

	emit := func(start, end int, k domain.BoundaryKind) {
		if start >= end {
			return
		}
		chunks = append(chunks, domain.Chunk{
			ChunkIndex: index,
			Text:       text[start:end],
			CharLength: end - start,
			Boundary:   k,
			SpanStart:  start,
			SpanEnd:    end,
		})
		index++
	}

	accStart := -1
	accEnd := -1

	flush := func() {
		if accStart >= 0 {
			emit(accStart, accEnd, kind)
			accStart, accEnd = -1, -1
		}
	}

	for i := 0; i+1 < len(boundaries); i++ {
		s, e := boundaries[i], boundaries[i+1]
		if e-s > targetSize {
			// Oversize span: flush the accumulator, then word-split it.
			flush()
			for _, piece := range splitAtWhitespace(text, s, e, targetSize) {
				emit(piece[0], piece[1], domain.BoundaryWordSplit)
			}
			continue
		}

		if accStart < 0 {
			accStart, accEnd = s, e
			continue
		}
		if e-accStart > targetSize {
			flush()
			accStart, accEnd = s, e
			continue
		}
		accEnd = e
	}
	flush()

	return chunks
}

// splitAtWhitespace cuts text[start:end] into pieces of at most targetSize
// characters, cutting only at whitespace. A single word longer than
// targetSize is emitted whole: one semantic unit is never split further.
func splitAtWhitespace(text string, start, end, targetSize int) [][2]int {
	var pieces [][2]int
	pieceStart := start
	lastSpace := -1

	for i := start; i < end; i++ {
		if isSpace(text[i]) {
			lastSpace = i
		}
		if i-pieceStart+1 > targetSize {
			if lastSpace > pieceStart {
				pieces = append(pieces, [2]int{pieceStart, lastSpace})
				pieceStart = lastSpace
				lastSpace = -1
			}
			// No whitespace inside the window: keep scanning until one
			// appears, the word is emitted whole.
		}
	}
	if pieceStart < end {
		pieces = append(pieces, [2]int{pieceStart, end})
	}
	return pieces
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
