package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gocql/gocql"
)

const (
	defaultConnectAttempts = 10
	defaultConnectInterval = 5 * time.Second
)

// Options control a single statement execution.
type Options struct {
	// Consistency for the statement. Zero leaves the session default in place.
	Consistency gocql.Consistency
	// PageSize caps the number of rows returned in one page. Zero uses the
	// driver default.
	PageSize int
	// PageState resumes a paged scan where a previous page ended. Nil starts
	// from the beginning. The token is opaque; pass it through verbatim.
	PageState []byte
}

// Result holds one page of rows and the continuation token for the next
// page. PageState is nil when no further rows exist.
type Result struct {
	Rows      []map[string]interface{}
	PageState []byte
}

// Session is the minimal execution surface the repositories consume.
// *CQLSession satisfies it; tests substitute a fake.
type Session interface {
	Execute(ctx context.Context, stmt string, params []interface{}, opts Options) (Result, error)
}

// Config describes how to reach the cluster.
type Config struct {
	Hosts    []string
	Port     int
	Keyspace string
	// ConnectAttempts and ConnectInterval bound the wait-for-ready loop.
	// Zero values fall back to 10 attempts, 5s apart.
	ConnectAttempts int
	ConnectInterval time.Duration
}

// CQLSession wraps a live gocql session behind the Session interface.
type CQLSession struct {
	session *gocql.Session
}

// Connect establishes a session, retrying until the cluster is reachable or
// the attempt budget runs out. Keyspace may be empty for administrative
// connections that create the keyspace themselves.
func Connect(cfg Config, log *slog.Logger) (*CQLSession, error) {
	if len(cfg.Hosts) == 0 {
		return nil, errors.New("storage: at least one host is required")
	}
	if log == nil {
		log = slog.Default()
	}
	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = defaultConnectAttempts
	}
	interval := cfg.ConnectInterval
	if interval <= 0 {
		interval = defaultConnectInterval
	}

	cluster := gocql.NewCluster(cfg.Hosts...)
	if cfg.Port > 0 {
		cluster.Port = cfg.Port
	}
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.LocalQuorum

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		session, err := cluster.CreateSession()
		if err == nil {
			return &CQLSession{session: session}, nil
		}
		lastErr = err
		log.Warn("cassandra not ready yet", "attempt", attempt, "err", err)
		if attempt < attempts {
			time.Sleep(interval)
		}
	}
	return nil, fmt.Errorf("storage: connect: %w", lastErr)
}

// Execute runs one statement and returns the current page of rows plus the
// continuation token for the next one. Setting PageState (even nil) disables
// the driver's transparent auto-paging, so a paged read never silently spans
// page boundaries.
func (s *CQLSession) Execute(ctx context.Context, stmt string, params []interface{}, opts Options) (Result, error) {
	q := s.session.Query(stmt, params...).WithContext(ctx).PageState(opts.PageState)
	if opts.Consistency != 0 {
		q = q.Consistency(opts.Consistency)
	}
	if opts.PageSize > 0 {
		q = q.PageSize(opts.PageSize)
	}

	iter := q.Iter()
	rows, err := iter.SliceMap()
	if err != nil {
		_ = iter.Close()
		return Result{}, fmt.Errorf("storage: execute: %w", err)
	}
	next := iter.PageState()
	if err := iter.Close(); err != nil {
		return Result{}, fmt.Errorf("storage: execute: %w", err)
	}
	return Result{Rows: rows, PageState: next}, nil
}

// Close tears down the underlying session.
func (s *CQLSession) Close() {
	s.session.Close()
}
