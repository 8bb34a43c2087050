// Package mock provides a test double for the transcribe.Provider interface.
//
// Use Provider to return a pre-canned transcript without a live STT backend
// and to verify which samples were submitted for transcription.
//
// Example:
//
//	p := &mock.Provider{TranscribeResult: "open sesame"}
//	text, _ := p.Transcribe(ctx, sample)
package mock

import (
	"context"
	"sync"

	"github.com/scveran/voxauth/pkg/audio"
	"github.com/scveran/voxauth/pkg/provider/transcribe"
)

// Compile-time assertion that Provider satisfies transcribe.Provider.
var _ transcribe.Provider = (*Provider)(nil)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Sample is the audio sample passed to Transcribe.
	Sample audio.Sample
}

// Provider is a mock implementation of transcribe.Provider.
type Provider struct {
	mu sync.Mutex

	// TranscribeResult is returned by Transcribe when TranscribeErr is nil.
	TranscribeResult string

	// TranscribeErr, if non-nil, is returned as the error from Transcribe.
	TranscribeErr error

	// TranscribeCalls records every call to Transcribe in order.
	TranscribeCalls []TranscribeCall

	// ModelIDValue is returned by ModelID.
	ModelIDValue string
}

// Transcribe records the call and returns TranscribeResult, TranscribeErr.
func (p *Provider) Transcribe(ctx context.Context, sample audio.Sample) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, Sample: sample})
	if p.TranscribeErr != nil {
		return "", p.TranscribeErr
	}
	return p.TranscribeResult, nil
}

// ModelID returns ModelIDValue.
func (p *Provider) ModelID() string { return p.ModelIDValue }

// CallCount returns the number of Transcribe invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.TranscribeCalls)
}
