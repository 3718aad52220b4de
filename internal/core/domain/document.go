package domain

import (
	"strconv"
	"time"
)

// BoundaryKind records which chunking strategy produced a chunk.
type BoundaryKind string

const (
	// BoundaryStructural marks chunks cut at paragraph or clause boundaries.
	BoundaryStructural BoundaryKind = "structural"

	// BoundaryEntityAware marks chunks cut at detected entity boundaries.
	BoundaryEntityAware BoundaryKind = "entity_aware"

	// BoundaryWordSplit marks chunks produced by splitting an oversize span
	// at whitespace. These never respect semantic boundaries.
	BoundaryWordSplit BoundaryKind = "word_split"

	// BoundarySentence marks chunks produced by the sentence fallback path.
	BoundarySentence BoundaryKind = "sentence"

	// BoundaryShortText marks the single chunk produced for inputs below
	// the minimum chunking threshold.
	BoundaryShortText BoundaryKind = "short_text"
)

// Chunk is a retrieval-sized span of document text.
// Chunks are immutable once produced; reprocessing a document supersedes
// its entire chunk set.
type Chunk struct {
	// ChunkIndex is the ordinal position within the document.
	ChunkIndex int

	// Text is the chunk content.
	Text string

	// CharLength is len(Text) in bytes.
	CharLength int

	// Boundary records the strategy that cut this chunk.
	Boundary BoundaryKind

	// SpanStart and SpanEnd are byte offsets into the original text.
	// The final chunk of a document always has SpanEnd == len(text).
	SpanStart int
	SpanEnd   int
}

// Document is the extracted text of an ingested file plus basic metadata
// returned by the extraction collaborator.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title (usually the file name).
	Title string

	// Text is the full extracted text before chunking.
	Text string

	// DocumentType hints the chunker (e.g. "legal_contract", "letter").
	DocumentType string

	// PageCount is reported by the extractor when known.
	PageCount int

	// Language is the extractor-reported language code, if any.
	Language string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any
}

// VectorRecord is a durably indexed chunk: text plus optional embedding.
// A nil Embedding means the record is keyword-search-only because embedding
// generation failed and was not retried further.
type VectorRecord struct {
	// ID is derived from DocumentID and ChunkIndex via RecordID.
	ID string

	// DocumentID links to the owning document.
	DocumentID string

	// ChunkIndex is the chunk ordinal within the document.
	ChunkIndex int

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation, or nil when unavailable.
	Embedding []float32

	// Length is len(Text).
	Length int

	// CreatedAt is when the record was indexed.
	CreatedAt time.Time

	// Metadata carries document metadata down to search results.
	Metadata map[string]any
}

// RecordID derives the VectorRecord ID for a document chunk.
func RecordID(documentID string, chunkIndex int) string {
	return documentID + ":" + strconv.Itoa(chunkIndex)
}

// IndexStatus is the ingestion state of a document in the index.
type IndexStatus string

const (
	// StatusProcessing means a checkpointed insert is in progress.
	StatusProcessing IndexStatus = "processing"

	// StatusCompleted means every chunk of the document was committed.
	StatusCompleted IndexStatus = "completed"

	// StatusRolledBack means a failed insert was rolled back.
	StatusRolledBack IndexStatus = "rolled_back"
)

// DocumentIndexEntry tracks ingestion progress for one document.
// Invariant: StatusCompleted implies exactly ChunkCount VectorRecords exist
// for DocumentID. The index service verifies this after every write.
type DocumentIndexEntry struct {
	DocumentID string
	ChunkCount int
	Status     IndexStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IndexStats reports index health counters.
type IndexStats struct {
	// TotalDocuments is the number of DocumentIndexEntry rows.
	TotalDocuments int

	// TotalChunks is the number of VectorRecords.
	TotalChunks int

	// EmbeddedChunks is the number of VectorRecords with a non-nil embedding.
	EmbeddedChunks int
}

// ProgressEvent is emitted once per committed batch during an insert,
// plus a final event with Done set.
type ProgressEvent struct {
	DocumentID string

	// Batch is the zero-based batch ordinal.
	Batch int

	// Processed is the number of chunks committed so far.
	Processed int

	// Total is the number of chunks in the document.
	Total int

	// Embedded is the number of committed chunks with embeddings so far.
	Embedded int

	// Done marks the final event. Err is only meaningful on the final event.
	Done bool

	// Err carries the insert failure, nil on success.
	Err error
}
