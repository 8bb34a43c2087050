// Package openai provides a transcribe.Provider backed by the OpenAI audio
// transcription API (Whisper).
package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/scveran/voxauth/pkg/audio"
	"github.com/scveran/voxauth/pkg/provider/transcribe"
)

// DefaultModel is the default OpenAI transcription model.
const DefaultModel = string(oai.AudioModelWhisper1)

// Compile-time assertion that Provider satisfies transcribe.Provider.
var _ transcribe.Provider = (*Provider)(nil)

// Provider implements transcribe.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a new OpenAI transcription Provider.
// If model is empty, DefaultModel (whisper-1) is used.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai transcribe: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// Transcribe re-wraps the PCM payload as a WAV file and submits it to the
// transcriptions endpoint. API failures map to [transcribe.ErrService]; an
// empty transcript maps to [transcribe.ErrUnintelligible].
func (p *Provider) Transcribe(ctx context.Context, sample audio.Sample) (string, error) {
	var wav bytes.Buffer
	if err := audio.EncodeWAV(&wav, sample); err != nil {
		return "", fmt.Errorf("%w: %w", transcribe.ErrService, err)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		Model: oai.AudioModel(p.model),
		File:  oai.File(&wav, "passphrase.wav", "audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", transcribe.ErrService, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", transcribe.ErrUnintelligible
	}
	return text, nil
}

// ModelID returns the transcription model in use.
func (p *Provider) ModelID() string {
	return p.model
}
