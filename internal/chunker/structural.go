package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

// legalDocumentTypes get the additional clause-marker boundary detection.
var legalDocumentTypes = map[string]bool{
	"legal":          true,
	"legal_contract": true,
	"contract":       true,
}

// clausePatterns build the per-call matchers for legal clause markers.
// Matchers are constructed fresh on every invocation so no mutable pattern
// state is ever shared across documents.
func clausePatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Numbered section markers: "1.", "2.3", "4)" at line start.
		regexp.MustCompile(`^\d+(\.\d+)*[.)]\s`),
		// Article/Section markers.
		regexp.MustCompile(`^(ARTICLE|Article|SECTION|Section|CLAUSE|Clause)\s+[IVXLC\d]+`),
		// Lettered or numbered sub-clauses: "(a)", "(iv)", "(1)".
		regexp.MustCompile(`^\([a-z0-9ivxlc]+\)\s`),
	}
}

// structuralBoundaries finds document-type aware boundaries in O(n):
// a single walk over the text collecting paragraph breaks with running
// offsets, plus line-start clause markers for legal document types.
func structuralBoundaries(text, documentType string) []int {
	boundaries := paragraphBoundaries(text, 0)

	if !legalDocumentTypes[documentType] {
		return boundaries
	}

	patterns := clausePatterns()

	// Walk lines with running offsets; never re-scan for positions.
	offset := 0
	for offset < len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		var line string
		if lineEnd < 0 {
			line = text[offset:]
			lineEnd = len(text) - offset
		} else {
			line = text[offset : offset+lineEnd]
		}

		trimmed := strings.TrimLeft(line, " \t")
		indent := len(line) - len(trimmed)

		if isClauseStart(trimmed, patterns) || isAllCapsHeader(trimmed) {
			boundaries = append(boundaries, offset+indent)
		}

		offset += lineEnd + 1
	}

	return boundaries
}

// paragraphBoundaries returns the absolute start offset of every paragraph
// in text, where base is the absolute offset of text's first byte.
// Computed in a single pass with running offsets.
func paragraphBoundaries(text string, base int) []int {
	boundaries := []int{base}
	offset := 0
	for {
		i := strings.Index(text[offset:], "\n\n")
		if i < 0 {
			break
		}
		// Skip the whole separator run so the boundary lands on content.
		next := offset + i
		for next < len(text) && (text[next] == '\n' || text[next] == '\r') {
			next++
		}
		if next < len(text) {
			boundaries = append(boundaries, base+next)
		}
		offset = next
		if offset >= len(text) {
			break
		}
	}
	return boundaries
}

// isClauseStart reports whether the trimmed line begins a numbered section,
// article marker or sub-clause.
func isClauseStart(line string, patterns []*regexp.Regexp) bool {
	if line == "" {
		return false
	}
	for _, p := range patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// isAllCapsHeader reports whether the line looks like an all-caps heading:
// short, at least two letters, and no lowercase letters in any script.
func isAllCapsHeader(line string) bool {
	if len(line) == 0 || len(line) > 80 {
		return false
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			letters++
		}
	}
	return letters >= 2
}
