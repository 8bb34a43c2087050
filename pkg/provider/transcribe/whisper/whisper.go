// Package whisper provides a transcribe.Provider backed by the whisper.cpp
// CGO bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
//
// The model is loaded once per Provider and shared across all concurrent
// transcriptions; each Transcribe call creates its own whisper.cpp context,
// which is the unit of thread confinement in the bindings.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/scveran/voxauth/pkg/audio"
	"github.com/scveran/voxauth/pkg/provider/transcribe"
)

// Compile-time assertion that Provider satisfies transcribe.Provider.
var _ transcribe.Provider = (*Provider)(nil)

const (
	defaultLanguage = "en"

	// modelSampleRate is the input rate whisper.cpp models are trained on.
	// Samples at any higher rate are resampled down before inference.
	modelSampleRate = 16000

	// calibrationMs is the length of the leading segment used to estimate
	// the ambient noise floor before recognition.
	calibrationMs = 300

	// noiseGateFactor scales the measured noise floor into the energy gate
	// that decides where speech starts.
	noiseGateFactor = 1.5
)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the BCP-47 language code for transcription
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// Provider implements transcribe.Provider using whisper.cpp.
type Provider struct {
	model     whisperlib.Model
	modelPath string
	language  string
}

// New creates a Provider that loads the whisper.cpp model from the given file
// path. The caller must call Close when the provider is no longer needed.
func New(modelPath string, opts ...Option) (*Provider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &Provider{
		model:     model,
		modelPath: modelPath,
		language:  defaultLanguage,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// ModelID returns the path of the loaded whisper.cpp model file.
func (p *Provider) ModelID() string { return p.modelPath }

// Close releases the whisper model. Must be called when the provider is no
// longer needed.
func (p *Provider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// Transcribe runs whisper.cpp inference over the complete sample and returns
// the concatenated segment text. An empty recognition result maps to
// [transcribe.ErrUnintelligible]; inference failures map to
// [transcribe.ErrService].
func (p *Provider) Transcribe(ctx context.Context, sample audio.Sample) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", transcribe.ErrService, err)
	}

	pcm := audio.ResampleMono16(sample.PCM, sample.SampleRate, modelSampleRate)
	waveform := audio.PCMToFloat32(pcm)
	waveform = trimLeadingNoise(waveform, modelSampleRate)
	if len(waveform) == 0 {
		return "", transcribe.ErrUnintelligible
	}

	// Each inference gets a fresh context; contexts are not thread-safe but
	// the model is shared.
	wctx, err := p.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("%w: create context: %w", transcribe.ErrService, err)
	}
	if err := wctx.SetLanguage(p.language); err != nil {
		return "", fmt.Errorf("%w: set language %q: %w", transcribe.ErrService, p.language, err)
	}
	if err := wctx.Process(waveform, nil, nil, nil); err != nil {
		return "", fmt.Errorf("%w: process audio: %w", transcribe.ErrService, err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: read segment: %w", transcribe.ErrService, err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	transcript := strings.Join(parts, " ")
	if transcript == "" {
		return "", transcribe.ErrUnintelligible
	}
	return transcript, nil
}

// trimLeadingNoise estimates the ambient noise floor from the leading
// calibration segment and drops everything before the first window whose
// energy clears the gate. If no window clears the gate the recording is
// returned intact — speech may overlap the calibration segment, and being
// wrong here must never drop a valid utterance.
func trimLeadingNoise(waveform []float32, rate int) []float32 {
	calib := rate * calibrationMs / 1000
	if len(waveform) <= calib {
		return waveform
	}

	floor := rms(waveform[:calib])
	gate := floor * noiseGateFactor
	if gate < 1e-4 {
		// Effectively silent calibration segment; keep the recording intact.
		return waveform
	}

	// Scan in 20 ms windows for the first one above the gate.
	win := rate / 50
	for off := calib; off+win <= len(waveform); off += win {
		if rms(waveform[off:off+win]) >= gate {
			return waveform[off:]
		}
	}
	return waveform
}

// rms returns the root-mean-square energy of a float32 waveform.
func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
