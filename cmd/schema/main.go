package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"messenger/internal/storage"
)

// Creates the keyspace and tables the messenger core reads and writes.
// Safe to run repeatedly; every statement is IF NOT EXISTS.
func main() {
	// .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	hosts := strings.Split(envStr("CASSANDRA_HOSTS", "localhost"), ",")
	port := envInt("CASSANDRA_PORT", 9042)
	keyspace := envStr("CASSANDRA_KEYSPACE", "messenger")
	replication := envInt("CASSANDRA_REPLICATION_FACTOR", 1)

	// Connect without a keyspace so the keyspace itself can be created.
	session, err := storage.Connect(storage.Config{
		Hosts:           hosts,
		Port:            port,
		ConnectAttempts: 10,
		ConnectInterval: 5 * time.Second,
	}, slog.Default())
	if err != nil {
		slog.Error("failed to connect to cassandra", "err", err)
		os.Exit(1)
	}
	defer session.Close()

	if err := createSchema(context.Background(), session, keyspace, replication); err != nil {
		slog.Error("schema setup failed", "err", err)
		os.Exit(1)
	}
	slog.Info("schema ready", "keyspace", keyspace)
}

func createSchema(ctx context.Context, session storage.Session, keyspace string, replicationFactor int) error {
	stmts := []string{
		fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = {
			'class': 'SimpleStrategy',
			'replication_factor': %d
		}`, keyspace, replicationFactor),

		// Pair -> identity mapping, point lookups only.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.conversation_by_users (
			user_a_id int,
			user_b_id int,
			conversation_id uuid,
			PRIMARY KEY ((user_a_id, user_b_id))
		)`, keyspace),

		// Per-conversation log, scanned ascending by time key.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.messages_by_conversation (
			conversation_id uuid,
			message_time timeuuid,
			message_id uuid,
			sender_id int,
			receiver_id int,
			content text,
			PRIMARY KEY ((conversation_id), message_time)
		) WITH CLUSTERING ORDER BY (message_time ASC)`, keyspace),

		// Per-user index. Clustering by conversation_id keeps one row per
		// (user, conversation) so each message overwrites the entry.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.conversations_by_user (
			user_id int,
			conversation_id uuid,
			last_message_time timeuuid,
			other_user_id int,
			last_message_sender_id int,
			last_message_content text,
			PRIMARY KEY ((user_id), conversation_id)
		)`, keyspace),
	}

	for _, stmt := range stmts {
		if _, err := session.Execute(ctx, stmt, nil, storage.Options{}); err != nil {
			return err
		}
	}
	return nil
}

func envStr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
