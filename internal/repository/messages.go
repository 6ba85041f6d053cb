package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"messenger/internal/domain"
	"messenger/internal/storage"
)

// previewLimit caps the index preview; the message row keeps the full text.
const previewLimit = 200

const (
	insertMessageStmt = `INSERT INTO messages_by_conversation (conversation_id, message_time, message_id, sender_id, receiver_id, content) VALUES (?, ?, ?, ?, ?, ?)`

	upsertUserConversationStmt = `INSERT INTO conversations_by_user (user_id, conversation_id, last_message_time, other_user_id, last_message_sender_id, last_message_content) VALUES (?, ?, ?, ?, ?, ?)`

	selectMessagesStmt       = `SELECT conversation_id, message_time, message_id, sender_id, receiver_id, content FROM messages_by_conversation WHERE conversation_id = ?`
	selectMessagesBeforeStmt = selectMessagesStmt + ` AND message_time < ?`
)

// ID-generation hooks, overridable in tests.
var (
	newMessageTime = func() gocql.UUID {
		return gocql.TimeUUID()
	}
	newMessageID = func() gocql.UUID {
		return gocql.UUID(uuid.New())
	}
)

// AppendResult identifies a stored message.
type AppendResult struct {
	ConversationID gocql.UUID
	MessageTime    gocql.UUID
	MessageID      gocql.UUID
}

// Messages appends to and reads the per-conversation message log.
type Messages struct {
	session  storage.Session
	identity *Identity
	log      *slog.Logger
}

// NewMessages creates a Messages store. A nil logger falls back to
// slog.Default.
func NewMessages(session storage.Session, identity *Identity, log *slog.Logger) (*Messages, error) {
	if session == nil {
		return nil, errors.New("repository: session must not be nil")
	}
	if identity == nil {
		return nil, errors.New("repository: identity must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Messages{session: session, identity: identity, log: log}, nil
}

// Append resolves the conversation for the pair, inserts the message row,
// then fans the write out to both participants' conversation indexes. The
// three writes are independent round-trips with no cross-table transaction:
// on error the whole operation reports failure, partial writes may persist,
// and a retry is safe because the upserts overwrite and a fresh append gets
// fresh identifiers.
//
// MessageTime is a time UUID: messages landing within the same clock tick
// order by the key's tie-breaker bits, which need not match send order.
func (m *Messages) Append(ctx context.Context, senderID, receiverID int, content string) (AppendResult, error) {
	conversationID, err := m.identity.Resolve(ctx, senderID, receiverID)
	if err != nil {
		return AppendResult{}, err
	}

	messageTime := newMessageTime()
	messageID := newMessageID()

	if _, err := m.session.Execute(ctx, insertMessageStmt,
		[]interface{}{conversationID, messageTime, messageID, senderID, receiverID, content},
		storage.Options{Consistency: writeConsistency}); err != nil {
		return AppendResult{}, newError(ErrorStorageUnavailable, "message_insert", err)
	}

	preview := truncate(content, previewLimit)
	if _, err := m.session.Execute(ctx, upsertUserConversationStmt,
		[]interface{}{senderID, conversationID, messageTime, receiverID, senderID, preview},
		storage.Options{Consistency: writeConsistency}); err != nil {
		return AppendResult{}, newError(ErrorStorageUnavailable, "sender_index_upsert", err)
	}
	if _, err := m.session.Execute(ctx, upsertUserConversationStmt,
		[]interface{}{receiverID, conversationID, messageTime, senderID, senderID, preview},
		storage.Options{Consistency: writeConsistency}); err != nil {
		return AppendResult{}, newError(ErrorStorageUnavailable, "receiver_index_upsert", err)
	}

	m.log.Info("message stored",
		"conversation_id", conversationID.String(), "message_id", messageID.String())
	return AppendResult{
		ConversationID: conversationID,
		MessageTime:    messageTime,
		MessageID:      messageID,
	}, nil
}

// List returns one page of the conversation's log in ascending message_time
// order (the table's clustering order) plus the continuation token for the
// next page. A storage failure degrades to an empty page with no token;
// callers that must distinguish that from end-of-data have to check store
// health separately.
func (m *Messages) List(ctx context.Context, conversationID gocql.UUID, pageSize int, pageState []byte) ([]domain.Message, []byte) {
	res, err := m.session.Execute(ctx, selectMessagesStmt,
		[]interface{}{conversationID},
		storage.Options{Consistency: readConsistency, PageSize: pageSize, PageState: pageState})
	if err != nil {
		m.log.Error("list messages failed",
			"conversation_id", conversationID.String(), "err", err)
		return nil, nil
	}
	return messagesFromRows(res.Rows), res.PageState
}

// ListBefore behaves like List but only returns messages whose time key is
// strictly less than the key derived from before. The comparison is on the
// derived key, not wall-clock equality.
func (m *Messages) ListBefore(ctx context.Context, conversationID gocql.UUID, before time.Time, pageSize int, pageState []byte) ([]domain.Message, []byte) {
	beforeKey := gocql.UUIDFromTime(before)
	res, err := m.session.Execute(ctx, selectMessagesBeforeStmt,
		[]interface{}{conversationID, beforeKey},
		storage.Options{Consistency: readConsistency, PageSize: pageSize, PageState: pageState})
	if err != nil {
		m.log.Error("list messages before failed",
			"conversation_id", conversationID.String(), "err", err)
		return nil, nil
	}
	return messagesFromRows(res.Rows), res.PageState
}

func messagesFromRows(rows []map[string]interface{}) []domain.Message {
	msgs := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		var msg domain.Message
		if v, ok := row["conversation_id"].(gocql.UUID); ok {
			msg.ConversationID = v
		}
		if v, ok := row["message_id"].(gocql.UUID); ok {
			msg.ID = v
		}
		if v, ok := row["sender_id"].(int); ok {
			msg.SenderID = v
		}
		if v, ok := row["receiver_id"].(int); ok {
			msg.ReceiverID = v
		}
		if v, ok := row["content"].(string); ok {
			msg.Content = v
		}
		if v, ok := row["message_time"].(gocql.UUID); ok {
			msg.MessageTime = v
			msg.CreatedAt = timeFromKey(v)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// timeFromKey extracts the wall-clock instant embedded in a time UUID. A
// zero key yields nil instead of the UUID epoch.
func timeFromKey(key gocql.UUID) *time.Time {
	if key == (gocql.UUID{}) {
		return nil
	}
	t := key.Time().UTC()
	return &t
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
