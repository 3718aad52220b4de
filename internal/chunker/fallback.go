package chunker

import (
	"strings"
	"unicode"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

// sentenceTerminators is a Unicode-aware terminator set covering multiple
// scripts, not just ASCII punctuation.
var sentenceTerminators = map[rune]bool{
	'.': true, '!': true, '?': true, '…': true,
	'。': true, '！': true, '？': true, // CJK
	'؟': true, '۔': true, // Arabic, Urdu
	'।': true, '॥': true, // Devanagari
	'፡': true, '።': true, // Ethiopic
}

// fallbackChunks chunks text at sentence boundaries, falling back further
// to word-boundary chunking when no sentence boundaries exist at all.
func (c *Chunker) fallbackChunks(text string, opts Options) []domain.Chunk {
	sentences := splitSentences(text)
	if len(sentences) > 1 {
		return assembleUnits(text, sentences, opts.TargetSize, opts.SentenceOverlap, domain.BoundarySentence)
	}

	words := splitWords(text)
	if len(words) == 0 {
		return nil
	}
	return assembleUnits(text, words, opts.TargetSize, opts.WordOverlap, domain.BoundaryWordSplit)
}

// span is a half-open [start,end) byte range in the original text.
type span struct {
	start, end int
}

// splitSentences splits text into contiguous sentence spans. Each span
// includes its terminator and trailing whitespace, so spans tile the text
// exactly and the final span ends at len(text).
func splitSentences(text string) []span {
	var spans []span
	start := 0
	inTerminator := false

	for i, r := range text {
		if sentenceTerminators[r] {
			inTerminator = true
			continue
		}
		if inTerminator && !unicode.IsSpace(r) {
			if strings.TrimSpace(text[start:i]) != "" {
				spans = append(spans, span{start, i})
				start = i
			}
			inTerminator = false
		} else if inTerminator && unicode.IsSpace(r) {
			continue
		}
	}
	if start < len(text) {
		spans = append(spans, span{start, len(text)})
	}
	return spans
}

// splitWords splits text into word spans at whitespace. Separator runs are
// attached to the preceding word so spans tile the text exactly.
func splitWords(text string) []span {
	var spans []span
	start := -1
	for i := 0; i < len(text); i++ {
		if !isSpace(text[i]) && start < 0 {
			if len(spans) > 0 {
				// Extend the previous word over the separator run.
				spans[len(spans)-1].end = i
			}
			start = i
		}
		if isSpace(text[i]) && start >= 0 {
			spans = append(spans, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, span{start, len(text)})
	} else if len(spans) > 0 {
		spans[len(spans)-1].end = len(text)
	}
	// Leading whitespace belongs to the first word.
	if len(spans) > 0 {
		spans[0].start = 0
	}
	return spans
}

// assembleUnits greedily packs unit spans into chunks of at most
// targetSize characters, repeating the last `overlap` units at the start
// of each following chunk. A single unit longer than targetSize is
// emitted as its own chunk: it cannot be split further at this level.
func assembleUnits(text string, units []span, targetSize, overlap int, kind domain.BoundaryKind) []domain.Chunk {
	var chunks []domain.Chunk
	index := 0

	i := 0
	for i < len(units) {
		first := i
		end := units[i].end
		for i+1 < len(units) && units[i+1].end-units[first].start <= targetSize {
			i++
			end = units[i].end
		}

		chunks = append(chunks, domain.Chunk{
			ChunkIndex: index,
			Text:       text[units[first].start:end],
			CharLength: end - units[first].start,
			Boundary:   kind,
			SpanStart:  units[first].start,
			SpanEnd:    end,
		})
		index++

		if i+1 >= len(units) {
			break
		}

		// Step back for overlap, but always advance past `first` so the
		// walk terminates.
		next := i + 1 - overlap
		if next <= first {
			next = first + 1
		}
		i = next
	}

	// The final chunk must always close the document.
	if n := len(chunks); n > 0 && chunks[n-1].SpanEnd != len(text) {
		chunks[n-1].Text = text[chunks[n-1].SpanStart:]
		chunks[n-1].CharLength = len(chunks[n-1].Text)
		chunks[n-1].SpanEnd = len(text)
	}

	return chunks
}
