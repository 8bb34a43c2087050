package artifact

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Dir: t.TempDir(), Backoff: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestCreateWritesFile(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	a, err := m.Create("alice", strings.NewReader("RIFFdata"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(a.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "RIFFdata" {
		t.Errorf("file contents = %q, want %q", got, "RIFFdata")
	}
	if a.Size != int64(len("RIFFdata")) {
		t.Errorf("Size = %d, want %d", a.Size, len("RIFFdata"))
	}
}

func TestCreateUniqueNamesPerIdentity(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	a, err := m.Create("alice", strings.NewReader("one"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Create("alice", strings.NewReader("two"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Path == b.Path {
		t.Errorf("two artifacts for the same identity share path %s", a.Path)
	}
}

func TestCreateSanitizesIdentity(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	a, err := m.Create("../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(a.Path, m.dir) {
		t.Errorf("artifact escaped managed dir: %s", a.Path)
	}
}

func TestCleanupRemovesFile(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	a, err := m.Create("alice", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	m.Cleanup(t.Context(), a)
	if _, err := os.Stat(a.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("artifact still present after Cleanup: %v", err)
	}
}

func TestCleanupRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	a, err := m.Create("alice", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}

	var calls int
	realRemove := m.remove
	m.remove = func(path string) error {
		calls++
		if calls < 3 {
			return errors.New("file is busy")
		}
		return realRemove(path)
	}

	m.Cleanup(t.Context(), a)
	if calls != 3 {
		t.Errorf("remove called %d times, want 3", calls)
	}
	if _, err := os.Stat(a.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("artifact still present after successful retry")
	}
}

func TestCleanupGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	a, err := m.Create("alice", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}

	var calls int
	m.remove = func(string) error {
		calls++
		return errors.New("file is busy")
	}

	// Must return rather than loop or panic.
	m.Cleanup(t.Context(), a)
	if calls != DefaultRetries {
		t.Errorf("remove called %d times, want %d", calls, DefaultRetries)
	}
}

func TestCleanupMissingFileIsQuiet(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	m.Cleanup(t.Context(), &Artifact{Path: m.dir + "/never-existed.wav"})
	m.Cleanup(t.Context(), nil)
}
