package domain

import "time"

// MaxConversations is the retention cap. The newest conversations are kept;
// the oldest are evicted on overflow.
const MaxConversations = 50

// ConversationTurn is one question/answer exchange. Turns are appended,
// never edited.
type ConversationTurn struct {
	Timestamp time.Time
	Query     string
	Answer    string

	// SourceCount is how many sources backed the answer.
	SourceCount int

	// Confidence is the score computed for this turn.
	Confidence ConfidenceScore
}

// Conversation is an ordered log of turns under one persona.
type Conversation struct {
	ID        string
	PersonaID string
	CreatedAt time.Time
	UpdatedAt time.Time
	Turns     []ConversationTurn
}
