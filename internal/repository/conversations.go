package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gocql/gocql"

	"messenger/internal/domain"
	"messenger/internal/storage"
)

const selectUserConversationsStmt = `SELECT user_id, conversation_id, last_message_time, other_user_id, last_message_sender_id, last_message_content FROM conversations_by_user WHERE user_id = ?`

// Conversations is the read path over the per-user conversation index.
type Conversations struct {
	session  storage.Session
	identity *Identity
	log      *slog.Logger
}

// NewConversations creates a Conversations reader. A nil logger falls back
// to slog.Default.
func NewConversations(session storage.Session, identity *Identity, log *slog.Logger) (*Conversations, error) {
	if session == nil {
		return nil, errors.New("repository: session must not be nil")
	}
	if identity == nil {
		return nil, errors.New("repository: identity must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Conversations{session: session, identity: identity, log: log}, nil
}

// ListForUser returns one page of the user's conversation summaries plus
// the continuation token for the next page. Rows come back in the index's
// clustering order (by conversation id); each summary carries LastMessageAt
// for callers that sort by recency. A storage failure degrades to an empty
// page with no token.
func (c *Conversations) ListForUser(ctx context.Context, userID int, pageSize int, pageState []byte) ([]domain.ConversationSummary, []byte) {
	res, err := c.session.Execute(ctx, selectUserConversationsStmt,
		[]interface{}{userID},
		storage.Options{Consistency: readConsistency, PageSize: pageSize, PageState: pageState})
	if err != nil {
		c.log.Error("list conversations failed", "user_id", userID, "err", err)
		return nil, nil
	}

	summaries := make([]domain.ConversationSummary, 0, len(res.Rows))
	for _, row := range res.Rows {
		s := domain.ConversationSummary{User1ID: userID}
		if v, ok := row["conversation_id"].(gocql.UUID); ok {
			s.ID = v
		}
		if v, ok := row["other_user_id"].(int); ok {
			s.User2ID = v
		}
		if v, ok := row["last_message_sender_id"].(int); ok {
			s.LastMessageSenderID = v
		}
		if v, ok := row["last_message_content"].(string); ok {
			s.LastMessageContent = v
		}
		if v, ok := row["last_message_time"].(gocql.UUID); ok {
			s.LastMessageAt = timeFromKey(v)
		}
		summaries = append(summaries, s)
	}
	return summaries, res.PageState
}

// Get is not served by this schema: the index is keyed by participant, so
// fetching a conversation by id alone would need an unindexed scan. It
// returns NotSupported without touching storage.
func (c *Conversations) Get(ctx context.Context, conversationID gocql.UUID) (domain.ConversationSummary, error) {
	return domain.ConversationSummary{}, newError(ErrorNotSupported, "conversation_by_id", nil)
}

// Resolve exposes identity resolution for callers that need a conversation
// id without appending a message.
func (c *Conversations) Resolve(ctx context.Context, user1ID, user2ID int) (gocql.UUID, error) {
	return c.identity.Resolve(ctx, user1ID, user2ID)
}
