// Package transcribe defines the Provider interface for speech-to-text
// backends used in the passphrase pipeline.
//
// Unlike streaming conversational STT, passphrase transcription is a one-shot
// operation: the caller hands over one complete validated recording and gets
// back either the full transcript or a typed failure. Providers must not
// retry internally — a transcription failure is terminal for the current
// authentication attempt, and the retry decision (currently: none) belongs to
// the pipeline.
//
// Implementations must be safe for concurrent use; multiple enrollments and
// verifications may transcribe simultaneously.
package transcribe

import (
	"context"
	"errors"

	"github.com/scveran/voxauth/pkg/audio"
)

// ErrUnintelligible is returned when the backend processed the audio but
// could not produce a confident transcript (silence, mumbling, noise).
// Callers surface this to users as "we couldn't understand you", distinct
// from a backend outage.
var ErrUnintelligible = errors.New("transcribe: could not understand audio")

// ErrService is returned when the backend itself failed: unreachable,
// authentication rejected, or an internal inference error. Wrapped with the
// underlying cause where one exists.
var ErrService = errors.New("transcribe: service failure")

// Provider is the abstraction over any speech-to-text backend.
//
// The sample is guaranteed by the caller to have passed the format gate
// (mono, 16-bit, ≥16 kHz), so implementations may rely on that shape.
// Providers may internally calibrate against ambient noise using a leading
// segment of the same sample before recognising the utterance; that is an
// implementation detail, not part of this contract.
type Provider interface {
	// Transcribe converts one complete audio sample to text. On success the
	// returned string is non-empty. Failures are reported as an error
	// matching either [ErrUnintelligible] or [ErrService] via errors.Is.
	//
	// The call blocks until the backend answers or ctx is cancelled.
	Transcribe(ctx context.Context, sample audio.Sample) (string, error)

	// ModelID returns the provider-specific model identifier, for logging
	// and diagnostics. Never used in the authentication decision.
	ModelID() string
}
