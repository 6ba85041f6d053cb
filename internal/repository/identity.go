package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"messenger/internal/storage"
)

// Every statement in this package runs at quorum; the level is a package
// constant, never a per-call parameter.
const (
	writeConsistency = gocql.LocalQuorum
	readConsistency  = gocql.LocalQuorum
)

const (
	selectConversationIDStmt = `SELECT conversation_id FROM conversation_by_users WHERE user_a_id = ? AND user_b_id = ? LIMIT 1`
	insertConversationStmt   = `INSERT INTO conversation_by_users (user_a_id, user_b_id, conversation_id) VALUES (?, ?, ?)`
)

// newConversationID is a hook so tests can pin generated identifiers.
var newConversationID = func() gocql.UUID {
	return gocql.UUID(uuid.New())
}

// Identity maps an unordered pair of users to their stable conversation
// identifier.
type Identity struct {
	session storage.Session
	log     *slog.Logger
}

// NewIdentity creates an Identity. A nil logger falls back to slog.Default.
func NewIdentity(session storage.Session, log *slog.Logger) (*Identity, error) {
	if session == nil {
		return nil, errors.New("repository: session must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Identity{session: session, log: log}, nil
}

// Resolve returns the conversation identifier for {user1, user2}, creating
// it on first contact. The result is independent of argument order: the
// pair is canonicalized as (min, max) before lookup.
//
// The lookup and the first-contact insert are separate round-trips, not a
// conditional write, so two concurrent first contacts can briefly mint two
// identifiers for the same pair. That short-lived window is accepted rather
// than paying for a lightweight transaction on every resolve.
func (i *Identity) Resolve(ctx context.Context, user1ID, user2ID int) (gocql.UUID, error) {
	if user1ID == user2ID {
		return gocql.UUID{}, newError(ErrorInvalidArgument, "self_conversation", nil)
	}
	userA, userB := user1ID, user2ID
	if userB < userA {
		userA, userB = userB, userA
	}

	res, err := i.session.Execute(ctx, selectConversationIDStmt,
		[]interface{}{userA, userB},
		storage.Options{Consistency: readConsistency})
	if err != nil {
		return gocql.UUID{}, newError(ErrorStorageUnavailable, "conversation_lookup", err)
	}
	if len(res.Rows) > 0 {
		id, ok := res.Rows[0]["conversation_id"].(gocql.UUID)
		if !ok {
			return gocql.UUID{}, newError(ErrorStorageUnavailable, "conversation_id_decode", nil)
		}
		return id, nil
	}

	id := newConversationID()
	if _, err := i.session.Execute(ctx, insertConversationStmt,
		[]interface{}{userA, userB, id},
		storage.Options{Consistency: writeConsistency}); err != nil {
		return gocql.UUID{}, newError(ErrorStorageUnavailable, "conversation_insert", err)
	}
	i.log.Info("created conversation",
		"user_a_id", userA, "user_b_id", userB, "conversation_id", id.String())
	return id, nil
}
