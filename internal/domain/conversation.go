package domain

import (
	"time"

	"github.com/gocql/gocql"
)

// ConversationSummary is one entry of a user's conversation index: a
// denormalized projection of the latest message exchanged with one other
// participant. Each new message overwrites the entry for its conversation.
type ConversationSummary struct {
	ID gocql.UUID
	// User1ID is the user the listing was requested for, User2ID the other
	// participant.
	User1ID             int
	User2ID             int
	LastMessageSenderID int
	// LastMessageContent is a preview truncated to 200 characters; the full
	// text lives only in the message log.
	LastMessageContent string
	LastMessageAt      *time.Time
}
