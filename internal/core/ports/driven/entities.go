package driven

import "context"

// EntityKind classifies a detected entity boundary.
type EntityKind string

const (
	EntityPerson       EntityKind = "person"
	EntityOrganization EntityKind = "organization"
	EntityDate         EntityKind = "date"
	EntityAmount       EntityKind = "amount"
	EntityClause       EntityKind = "clause"
)

// EntitySpan is a detected entity within a window of text. Offsets are
// relative to the window start; the chunker translates them back to
// absolute document positions.
type EntitySpan struct {
	// Start and End are byte offsets within the window.
	Start int
	End   int

	Kind EntityKind
}

// EntityDetector finds entity boundaries in a window of text.
// This is a best-effort collaborator: the chunker must never fail a
// document because one window's detection failed, and must work without
// a detector at all (structural and sentence fallbacks exist).
type EntityDetector interface {
	// DetectEntities returns entity spans found in the window.
	DetectEntities(ctx context.Context, window string) ([]EntitySpan, error)
}
