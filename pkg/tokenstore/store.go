// Package tokenstore holds the bearer token of the current portal session.
//
// The Store keeps the token in memory and mirrors it to a durable Persister so
// that a restarted process (or a new CLI invocation) picks the session up again.
// Set is the only operation that writes to the persister.
package tokenstore

import (
	"context"
	"sync"

	slogctx "github.com/veqryn/slog-context"
)

// Key is the fixed name under which persisters keep the token.
const Key = "advbs_token"

// Persister is the durable key-value entry behind a Store.
type Persister interface {
	// Load returns the persisted token. An absent entry is reported as ("", nil).
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

type Store struct {
	persister Persister

	mu    sync.Mutex
	token string
	// stale is a persisted token that a clear failed to remove.
	stale string
}

func New(persister Persister) *Store {
	return &Store{persister: persister}
}

// Set replaces the current token. An empty token clears the session and
// removes the persisted entry. Memory is updated even when persisting fails;
// the persister error is returned so the caller can report it.
func (s *Store) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.token
	s.token = token

	if token != "" {
		s.stale = ""
		return s.persister.Save(ctx, token)
	}

	err := s.persister.Delete(ctx)
	if err != nil {
		s.stale = previous
		if s.stale == "" {
			s.stale, _ = s.persister.Load(ctx)
		}
		return err
	}

	s.stale = ""

	return nil
}

// Get returns the current token. When memory is empty the persisted entry is
// read on every call, so a token saved by another process is picked up.
// Persister failures are logged and reported as absent.
func (s *Store) Get(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, true
	}

	token, err := s.persister.Load(ctx)
	if err != nil {
		slogctx.Warn(ctx, "Failed to load the persisted token", "error", err)
		return "", false
	}

	if token == "" || token == s.stale {
		return "", false
	}

	s.token = token

	return token, true
}
