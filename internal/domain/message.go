package domain

import (
	"time"

	"github.com/gocql/gocql"
)

// Message is a single row of the per-conversation message log. Rows are
// immutable once written.
type Message struct {
	// ID is a random identifier used for deduplication and referencing,
	// never for ordering.
	ID             gocql.UUID
	ConversationID gocql.UUID
	// MessageTime is the time-derived ordering key (timeuuid). It sorts
	// consistently with wall-clock order within a conversation.
	MessageTime gocql.UUID
	SenderID    int
	ReceiverID  int
	Content     string
	// CreatedAt is derived from MessageTime; nil when the row carries no
	// time key.
	CreatedAt *time.Time
}
