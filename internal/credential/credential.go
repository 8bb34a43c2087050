// Package credential defines the voice credential record and the storage
// contract the authentication engine depends on.
//
// A credential is written exactly once at successful enrollment and never
// mutated in place; re-enrollment replaces the whole record. The store must
// guarantee at-most-one credential per identity with an atomic create, so
// concurrent enrollments for the same identity resolve to exactly one winner.
package credential

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by FindByIdentity when no credential exists for
// the identity.
var ErrNotFound = errors.New("credential: not found")

// ErrDuplicateIdentity is returned by Create when a credential already
// exists for the identity. Never retried by the caller.
var ErrDuplicateIdentity = errors.New("credential: identity already enrolled")

// VoiceCredential pairs an identity with its enrolled passphrase transcript
// and speaker embedding. Immutable once stored.
type VoiceCredential struct {
	// Identity is the unique username this credential belongs to.
	Identity string

	// Passphrase is the enrolled passphrase transcript, already normalised
	// (lower-cased, whitespace-collapsed) by the engine.
	Passphrase string

	// Embedding is the enrolled speaker-embedding vector. Its length is
	// constant across all credentials, fixed by the embedding model.
	Embedding []float32

	// Profile fields carried with the credential; never part of the
	// authentication decision.
	FullName    string
	Email       string
	DateOfBirth time.Time

	// CreatedAt is when the credential was stored.
	CreatedAt time.Time
}

// Store is the persistence contract for voice credentials.
//
// Implementations must be safe for concurrent use and must enforce identity
// uniqueness atomically: of N concurrent Create calls for the same identity,
// exactly one succeeds and the rest return [ErrDuplicateIdentity].
type Store interface {
	// FindByIdentity returns the credential enrolled for identity, or an
	// error matching [ErrNotFound].
	FindByIdentity(ctx context.Context, identity string) (*VoiceCredential, error)

	// Create stores a new credential. Returns an error matching
	// [ErrDuplicateIdentity] when the identity is already enrolled.
	Create(ctx context.Context, cred *VoiceCredential) error
}
