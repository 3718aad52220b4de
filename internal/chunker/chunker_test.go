package chunker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
)

// stubDetector returns canned spans or a canned error per call.
type stubDetector struct {
	spans []driven.EntitySpan
	err   error
	calls int
}

func (d *stubDetector) DetectEntities(_ context.Context, _ string) ([]driven.EntitySpan, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.spans, nil
}

// failNDetector fails the first n calls, then succeeds with no spans.
type failNDetector struct {
	n     int
	calls int
}

func (d *failNDetector) DetectEntities(_ context.Context, _ string) ([]driven.EntitySpan, error) {
	d.calls++
	if d.calls <= d.n {
		return nil, errors.New("detector down")
	}
	return nil, nil
}

func checkTiling(t *testing.T, text string, chunks []domain.Chunk) {
	t.Helper()
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
		if strings.TrimSpace(c.Text) == "" {
			t.Errorf("chunk %d is empty or whitespace-only", i)
		}
		if c.Text != text[c.SpanStart:c.SpanEnd] {
			t.Errorf("chunk %d text does not match its span", i)
		}
		if c.CharLength != len(c.Text) {
			t.Errorf("chunk %d CharLength %d != len(Text) %d", i, c.CharLength, len(c.Text))
		}
	}
	if last := chunks[len(chunks)-1]; last.SpanEnd != len(text) {
		t.Errorf("final chunk ends at %d, want %d", last.SpanEnd, len(text))
	}
}

func TestChunk_WhitespaceOnlyInput(t *testing.T) {
	c := New()
	if got := c.Chunk(context.Background(), "   \n\t  ", DefaultOptions()); got != nil {
		t.Errorf("expected nil chunks, got %d", len(got))
	}
}

func TestChunk_ShortText(t *testing.T) {
	c := New()
	text := "Payment due on signing."
	chunks := c.Chunk(context.Background(), text, DefaultOptions())

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Boundary != domain.BoundaryShortText {
		t.Errorf("boundary = %s, want %s", chunks[0].Boundary, domain.BoundaryShortText)
	}
	if chunks[0].Text != text {
		t.Errorf("chunk text = %q, want full input", chunks[0].Text)
	}
	checkTiling(t, text, chunks)
}

func TestChunk_LegalContractKeepsEntitiesIntact(t *testing.T) {
	text := "WHEREAS, Meridian Holdings Ltd agrees to pay $1,250,000.00 no later " +
		"than March 15, 2026, to Atlas Freight LLC under the terms set out below.\n\n" +
		"1. Payment. All amounts are due within thirty days of invoice receipt " +
		"and late payment accrues interest at the statutory rate.\n\n" +
		"2. Termination. Either party may terminate on ninety days written notice."

	amountStart := strings.Index(text, "$1,250,000.00")
	dateStart := strings.Index(text, "March 15, 2026")
	detector := &stubDetector{spans: []driven.EntitySpan{
		{Start: amountStart, End: amountStart + len("$1,250,000.00"), Kind: driven.EntityAmount},
		{Start: dateStart, End: dateStart + len("March 15, 2026"), Kind: driven.EntityDate},
	}}

	c := New(WithDetector(detector))
	opts := DefaultOptions()
	opts.DocumentType = "legal_contract"
	chunks := c.Chunk(context.Background(), text, opts)

	checkTiling(t, text, chunks)
	if detector.calls == 0 {
		t.Fatal("detector was not called")
	}
	for _, chunk := range chunks {
		if chunk.Boundary != domain.BoundaryEntityAware {
			t.Errorf("chunk %d boundary = %s, want %s", chunk.ChunkIndex, chunk.Boundary, domain.BoundaryEntityAware)
		}
	}

	// Each entity must land whole inside a single chunk.
	for _, entity := range []string{"$1,250,000.00", "March 15, 2026"} {
		found := false
		for _, chunk := range chunks {
			if strings.Contains(chunk.Text, entity) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("entity %q was split across chunks", entity)
		}
	}
}

func TestChunk_RespectsTargetSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&b, "Clause %d states the parties shall cooperate in good faith. ", i)
	}
	text := b.String()

	c := New()
	opts := DefaultOptions()
	opts.TargetSize = 200
	chunks := c.Chunk(context.Background(), text, opts)

	checkTiling(t, text, chunks)
	for _, chunk := range chunks {
		// Overlap-free sentence packing keeps every chunk within a couple of
		// units of the target. Allow one trailing sentence of slack.
		if chunk.CharLength > 2*opts.TargetSize {
			t.Errorf("chunk %d length %d far exceeds target %d", chunk.ChunkIndex, chunk.CharLength, opts.TargetSize)
		}
	}
}

func TestChunk_SentenceFallbackWithoutDetector(t *testing.T) {
	text := strings.Repeat("The first obligation applies. The second obligation differs. ", 10)

	c := New()
	chunks := c.Chunk(context.Background(), text, DefaultOptions())

	checkTiling(t, text, chunks)
	for _, chunk := range chunks {
		if chunk.Boundary != domain.BoundarySentence {
			t.Errorf("chunk %d boundary = %s, want %s", chunk.ChunkIndex, chunk.Boundary, domain.BoundarySentence)
		}
	}
}

func TestChunk_WordFallbackWithoutTerminators(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet consectetur ", 30)

	c := New()
	opts := DefaultOptions()
	opts.TargetSize = 100
	chunks := c.Chunk(context.Background(), text, opts)

	checkTiling(t, text, chunks)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if chunk.Boundary != domain.BoundaryWordSplit {
			t.Errorf("chunk %d boundary = %s, want %s", chunk.ChunkIndex, chunk.Boundary, domain.BoundaryWordSplit)
		}
	}
}

func TestChunk_AllWindowsFailFallsBackToSentences(t *testing.T) {
	text := strings.Repeat("Every window will fail for this document. ", 20)
	detector := &stubDetector{err: errors.New("service down")}

	c := New(WithDetector(detector))
	chunks := c.Chunk(context.Background(), text, DefaultOptions())

	checkTiling(t, text, chunks)
	if detector.calls == 0 {
		t.Fatal("detector was not called")
	}
	for _, chunk := range chunks {
		if chunk.Boundary != domain.BoundarySentence {
			t.Errorf("chunk %d boundary = %s, want %s after categorical failure", chunk.ChunkIndex, chunk.Boundary, domain.BoundarySentence)
		}
	}
}

func TestChunk_SingleWindowFailureStaysEntityAware(t *testing.T) {
	// Force multiple windows with a small target size so one failure is
	// not categorical.
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Paragraph %d covers one of the obligations.\n\n", i)
	}
	text := b.String()

	detector := &failNDetector{n: 1}
	c := New(WithDetector(detector))
	opts := DefaultOptions()
	opts.TargetSize = 200
	chunks := c.Chunk(context.Background(), text, opts)

	checkTiling(t, text, chunks)
	if detector.calls < 2 {
		t.Fatalf("expected multiple windows, detector called %d times", detector.calls)
	}
	for _, chunk := range chunks {
		if chunk.Boundary != domain.BoundaryEntityAware {
			t.Errorf("chunk %d boundary = %s, want %s", chunk.ChunkIndex, chunk.Boundary, domain.BoundaryEntityAware)
		}
	}
}

func TestChunk_EntityDetectionDisabled(t *testing.T) {
	text := strings.Repeat("Detection is disabled for this run. ", 10)
	detector := &stubDetector{}

	c := New(WithDetector(detector))
	opts := DefaultOptions()
	opts.UseEntityDetection = false
	c.Chunk(context.Background(), text, opts)

	if detector.calls != 0 {
		t.Errorf("detector called %d times with detection disabled", detector.calls)
	}
}

func TestSplitAtWhitespace_OversizeWordEmittedWhole(t *testing.T) {
	word := strings.Repeat("x", 50)
	text := "aa " + word + " bb"

	pieces := splitAtWhitespace(text, 0, len(text), 10)
	for _, p := range pieces {
		piece := text[p[0]:p[1]]
		if strings.Contains(piece, word[:10]) && !strings.Contains(piece, word) {
			t.Errorf("oversize word was split: %q", piece)
		}
	}
}

func TestMergeBoundaries_DropsWhitespaceOnlySpans(t *testing.T) {
	text := "alpha\n\n\nbeta"
	sep := strings.Index(text, "\n")

	// Boundaries inside the separator run would create whitespace spans.
	merged := mergeBoundaries(text, []int{sep, sep + 1, sep + 2})
	for i := 0; i+1 < len(merged); i++ {
		if strings.TrimSpace(text[merged[i]:merged[i+1]]) == "" {
			t.Errorf("span %d-%d is whitespace-only", merged[i], merged[i+1])
		}
	}
	if merged[0] != 0 || merged[len(merged)-1] != len(text) {
		t.Errorf("merged boundaries must span the text, got %v", merged)
	}
}

func TestSplitSentences_SpansTileText(t *testing.T) {
	text := "One sentence here. Another one! A third? And a trailing fragment"
	spans := splitSentences(text)

	if len(spans) < 3 {
		t.Fatalf("expected at least 3 sentences, got %d", len(spans))
	}
	pos := 0
	for i, s := range spans {
		if s.start != pos {
			t.Errorf("span %d starts at %d, want %d", i, s.start, pos)
		}
		pos = s.end
	}
	if pos != len(text) {
		t.Errorf("spans end at %d, want %d", pos, len(text))
	}
}

func TestSplitSentences_MultiScriptTerminators(t *testing.T) {
	text := "これは文章です。もう一つの文。"
	spans := splitSentences(text)
	if len(spans) != 2 {
		t.Errorf("expected 2 sentences, got %d", len(spans))
	}
}
