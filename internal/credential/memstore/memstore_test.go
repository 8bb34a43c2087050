package memstore_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/scveran/voxauth/internal/credential"
	"github.com/scveran/voxauth/internal/credential/memstore"
)

func TestFindByIdentity_NotFound(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	_, err := s.FindByIdentity(t.Context(), "nobody")
	if !errors.Is(err, credential.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreate_ThenFind(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	in := &credential.VoiceCredential{
		Identity:   "alice",
		Passphrase: "open sesame",
		Embedding:  []float32{1, 2, 3},
	}
	if err := s.Create(t.Context(), in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.FindByIdentity(t.Context(), "alice")
	if err != nil {
		t.Fatalf("FindByIdentity: %v", err)
	}
	if got.Passphrase != "open sesame" {
		t.Errorf("Passphrase = %q, want %q", got.Passphrase, "open sesame")
	}

	// Mutating the returned embedding must not touch stored state.
	got.Embedding[0] = 99
	again, _ := s.FindByIdentity(t.Context(), "alice")
	if again.Embedding[0] != 1 {
		t.Error("stored embedding was mutated through a returned copy")
	}
}

func TestCreate_ConcurrentSameIdentity_ExactlyOneWinner(t *testing.T) {
	t.Parallel()

	s := memstore.New()

	const attempts = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Create(t.Context(), &credential.VoiceCredential{
				Identity:  "alice",
				Embedding: []float32{1},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, credential.ErrDuplicateIdentity):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if duplicates != attempts-1 {
		t.Errorf("duplicates = %d, want %d", duplicates, attempts-1)
	}
	if s.Len() != 1 {
		t.Errorf("stored credentials = %d, want 1", s.Len())
	}
}
