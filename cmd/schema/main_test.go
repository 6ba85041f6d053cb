package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"messenger/internal/storage"
)

type fakeSession struct {
	stmts []string
	err   error
}

func (f *fakeSession) Execute(_ context.Context, stmt string, _ []interface{}, _ storage.Options) (storage.Result, error) {
	f.stmts = append(f.stmts, stmt)
	return storage.Result{}, f.err
}

func TestCreateSchemaProvisionsKeyspaceAndTables(t *testing.T) {
	fake := &fakeSession{}
	err := createSchema(context.Background(), fake, "messenger", 3)
	require.NoError(t, err)

	require.Len(t, fake.stmts, 4)
	require.Contains(t, fake.stmts[0], "CREATE KEYSPACE IF NOT EXISTS messenger")
	require.Contains(t, fake.stmts[0], "'replication_factor': 3")
	require.Contains(t, fake.stmts[1], "messenger.conversation_by_users")
	require.Contains(t, fake.stmts[2], "messenger.messages_by_conversation")
	require.Contains(t, fake.stmts[2], "CLUSTERING ORDER BY (message_time ASC)")
	require.Contains(t, fake.stmts[3], "messenger.conversations_by_user")
	require.Contains(t, fake.stmts[3], "PRIMARY KEY ((user_id), conversation_id)")
}

func TestCreateSchemaStopsOnFirstError(t *testing.T) {
	fake := &fakeSession{err: errors.New("unavailable")}
	err := createSchema(context.Background(), fake, "messenger", 1)
	require.Error(t, err)
	require.Len(t, fake.stmts, 1)
}
