package auth

import (
	"fmt"

	"github.com/scveran/voxauth/pkg/audio"
)

// ValidatorConfig holds the format rules a sample must satisfy before any
// model inference runs.
type ValidatorConfig struct {
	// Channels is the required channel count. Default 1 (mono).
	Channels int

	// BitDepth is the required bits per sample. Default 16.
	BitDepth int

	// MinSampleRate is the minimum accepted sample rate in Hz. Default 16000.
	MinSampleRate int
}

// withDefaults fills zero fields with the canonical pipeline requirements.
func (c ValidatorConfig) withDefaults() ValidatorConfig {
	if c.Channels == 0 {
		c.Channels = 1
	}
	if c.BitDepth == 0 {
		c.BitDepth = 16
	}
	if c.MinSampleRate == 0 {
		c.MinSampleRate = 16000
	}
	return c
}

// FormatError reports which format rule a sample violated. It satisfies the
// error interface; the message names the failed rule so users can fix their
// recording setup.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "auth: invalid audio format: " + e.Reason }

// Validator is the cheapest gate in the pipeline: a pure check over the
// format metadata derived from the container header. It runs before any
// model call so malformed input never wastes inference cost.
type Validator struct {
	cfg ValidatorConfig
}

// NewValidator creates a Validator. Zero fields in cfg fall back to the
// canonical mono/16-bit/16 kHz requirements.
func NewValidator(cfg ValidatorConfig) *Validator {
	return &Validator{cfg: cfg.withDefaults()}
}

// Check decides acceptability of the sample's format. Rules are checked in
// order and the first violation is returned as a *FormatError; nil means the
// sample may proceed to transcription and embedding.
func (v *Validator) Check(sample audio.Sample) error {
	if sample.Channels != v.cfg.Channels {
		return &FormatError{Reason: fmt.Sprintf("audio must have %d channel(s), got %d", v.cfg.Channels, sample.Channels)}
	}
	if sample.BitDepth != v.cfg.BitDepth {
		return &FormatError{Reason: fmt.Sprintf("audio must be %d-bit, got %d-bit", v.cfg.BitDepth, sample.BitDepth)}
	}
	if sample.SampleRate < v.cfg.MinSampleRate {
		return &FormatError{Reason: fmt.Sprintf("sample rate must be at least %d Hz, got %d Hz", v.cfg.MinSampleRate, sample.SampleRate)}
	}
	return nil
}
