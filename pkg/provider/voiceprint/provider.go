// Package voiceprint defines the Provider interface for speaker-embedding
// backends.
//
// A voiceprint provider wraps a model that maps a fixed-length audio window
// to a dense float32 vector summarising the speaker's vocal characteristics.
// Two recordings of the same speaker land close together in the embedding
// space; the similarity decision over those vectors belongs to the
// authentication engine, not to this package.
//
// Implementations must be safe for concurrent use.
package voiceprint

import (
	"context"
	"errors"
	"time"

	"github.com/scveran/voxauth/pkg/audio"
)

// Analysis-window contract shared by every provider: the embedding model
// operates on a constant input shape, so each recording is framed to exactly
// WindowDuration at WindowSampleRate — truncated when longer, zero-padded at
// the end when shorter. Use [Preprocess] to apply it.
const (
	WindowDuration   = 10 * time.Second
	WindowSampleRate = 16000
)

// ErrPreprocessing is returned when the audio could not be decoded or
// resampled into the model's input shape.
var ErrPreprocessing = errors.New("voiceprint: audio preprocessing failed")

// ErrModel is returned when the embedding model itself failed: not loaded,
// unreachable, or an inference error. Wrapped with the underlying cause
// where one exists.
var ErrModel = errors.New("voiceprint: model inference failed")

// Provider is the abstraction over any speaker-embedding backend.
//
// All vectors returned by a single Provider instance share the same
// dimensionality (returned by Dimensions). Vectors are NOT normalised by the
// provider — unit-norm scaling is the scorer's responsibility.
type Provider interface {
	// Embed computes the speaker-embedding vector for one audio sample.
	// Returns a float32 slice of length Dimensions(), or an error matching
	// [ErrPreprocessing] or [ErrModel] via errors.Is.
	Embed(ctx context.Context, sample audio.Sample) ([]float32, error)

	// Dimensions returns the fixed length of every vector produced by this
	// provider. Constant for the lifetime of the Provider instance.
	Dimensions() int

	// ModelID returns the provider-specific model identifier, for logging
	// and for ensuring credentials are only compared within one model space.
	ModelID() string
}

// Preprocess converts a validated sample into the model's canonical input:
// mono float32 at [WindowSampleRate], framed to exactly [WindowDuration].
// Every adapter applies this before inference so that enrollment and
// verification embeddings always come from identically shaped input.
func Preprocess(sample audio.Sample) []float32 {
	pcm := audio.ResampleMono16(sample.PCM, sample.SampleRate, WindowSampleRate)
	waveform := audio.PCMToFloat32(pcm)
	return audio.FitWindow(waveform, WindowSampleRate, WindowDuration)
}
