// Package artifact manages the transient audio files an upload produces.
// Every recording lands on disk exactly long enough to be decoded, then is
// removed with bounded retries. Cleanup failure is never fatal to the
// request that produced the artifact; leaked files are logged and counted
// so operators can sweep them.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/scveran/voxauth/internal/observe"
)

const (
	// DefaultRetries is the number of removal attempts per artifact.
	DefaultRetries = 3

	// DefaultBackoff is the fixed delay between removal attempts.
	DefaultBackoff = 100 * time.Millisecond
)

// seq disambiguates artifacts created within the same nanosecond.
var seq atomic.Uint64

// Config tunes a Manager. Zero values fall back to the package defaults.
type Config struct {
	// Dir is the directory artifacts are written to. Empty means the
	// system temp directory.
	Dir string

	// Retries is the number of removal attempts. Zero means DefaultRetries.
	Retries int

	// Backoff is the delay between removal attempts. Zero means
	// DefaultBackoff.
	Backoff time.Duration
}

// Artifact is one transient recording on disk.
type Artifact struct {
	// Path is the absolute location of the file.
	Path string

	// Size is the number of bytes written.
	Size int64
}

// Manager creates and removes transient artifacts. Safe for concurrent use.
type Manager struct {
	dir     string
	retries int
	backoff time.Duration
	metrics *observe.Metrics

	// remove is swapped in tests to simulate removal failures.
	remove func(string) error
}

// NewManager creates a Manager, creating cfg.Dir if it does not exist.
func NewManager(cfg Config) (*Manager, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("artifact: create dir %s: %w", dir, err)
	}
	retries := cfg.Retries
	if retries == 0 {
		retries = DefaultRetries
	}
	backoff := cfg.Backoff
	if backoff == 0 {
		backoff = DefaultBackoff
	}
	return &Manager{
		dir:     dir,
		retries: retries,
		backoff: backoff,
		metrics: observe.DefaultMetrics(),
		remove:  os.Remove,
	}, nil
}

// Create writes the contents of r to a fresh file named after identity. The
// name carries a timestamp and sequence number so concurrent uploads for the
// same identity never collide. The file is closed before Create returns.
func (m *Manager) Create(identity string, r io.Reader) (*Artifact, error) {
	name := fmt.Sprintf("%s_%d_%d.wav", sanitize(identity), time.Now().UnixNano(), seq.Add(1))
	path := filepath.Join(m.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("artifact: create %s: %w", path, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Half-written artifact is useless; best-effort removal now,
		// Cleanup would only retry the same path.
		_ = m.remove(path)
		return nil, fmt.Errorf("artifact: write %s: %w", path, err)
	}
	return &Artifact{Path: path, Size: n}, nil
}

// Cleanup removes the artifact, retrying on failure with a fixed backoff.
// It never returns an error: an artifact that survives every attempt is
// logged and counted, and the caller's request proceeds regardless.
func (m *Manager) Cleanup(ctx context.Context, a *Artifact) {
	if a == nil {
		return
	}
	var lastErr error
	for attempt := 1; attempt <= m.retries; attempt++ {
		lastErr = m.remove(a.Path)
		if lastErr == nil || errors.Is(lastErr, os.ErrNotExist) {
			return
		}
		if attempt < m.retries {
			m.metrics.CleanupRetries.Add(ctx, 1)
			select {
			case <-time.After(m.backoff):
			case <-ctx.Done():
				// Fall through to the leak report below.
				attempt = m.retries
			}
		}
	}
	m.metrics.CleanupFailures.Add(ctx, 1)
	observe.Logger(ctx).Warn("transient artifact leaked",
		"path", a.Path,
		"attempts", m.retries,
		"error", lastErr,
	)
}

// sanitize strips path separators and parent references from an identity so
// it is safe to embed in a filename.
func sanitize(identity string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		default:
			return r
		}
	}, identity)
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		s = "anonymous"
	}
	return s
}
