// Package memstore provides an in-memory credential.Store for tests and for
// DSN-less development runs. It honours the same atomic-create and
// uniqueness guarantees as the PostgreSQL store.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/scveran/voxauth/internal/credential"
)

// Compile-time interface check.
var _ credential.Store = (*Store)(nil)

// Store is a mutex-guarded in-memory credential store, safe for concurrent
// use.
type Store struct {
	mu    sync.Mutex
	creds map[string]credential.VoiceCredential
}

// New creates an empty Store.
func New() *Store {
	return &Store{creds: make(map[string]credential.VoiceCredential)}
}

// FindByIdentity implements credential.Store.
func (s *Store) FindByIdentity(_ context.Context, identity string) (*credential.VoiceCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[identity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", credential.ErrNotFound, identity)
	}
	// Copy out so callers cannot mutate stored state.
	out := cred
	out.Embedding = append([]float32(nil), cred.Embedding...)
	return &out, nil
}

// Create implements credential.Store. The check-and-insert runs under one
// lock acquisition, so concurrent creates for the same identity resolve to
// exactly one winner.
func (s *Store) Create(_ context.Context, cred *credential.VoiceCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.creds[cred.Identity]; exists {
		return fmt.Errorf("%w: %q", credential.ErrDuplicateIdentity, cred.Identity)
	}

	stored := *cred
	stored.Embedding = append([]float32(nil), cred.Embedding...)
	s.creds[cred.Identity] = stored
	return nil
}

// Len returns the number of stored credentials.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.creds)
}
