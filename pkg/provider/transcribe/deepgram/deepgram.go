// Package deepgram provides a transcribe.Provider backed by the Deepgram
// streaming WebSocket API.
//
// Passphrase transcription is one-shot, so each Transcribe call opens a
// short-lived streaming session: the whole sample is written in chunks, a
// CloseStream message flushes the recogniser, and the final results are
// concatenated into one transcript before the socket is closed.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"

	"github.com/scveran/voxauth/pkg/audio"
	"github.com/scveran/voxauth/pkg/provider/transcribe"
)

// Compile-time assertion that Provider satisfies transcribe.Provider.
var _ transcribe.Provider = (*Provider)(nil)

const (
	defaultEndpoint = "wss://api.deepgram.com/v1/listen"
	defaultModel    = "nova-3"
	defaultLanguage = "en"

	// chunkBytes is the size of each binary audio message. Deepgram
	// recommends chunks of 20–250 ms; 8 KiB is 250 ms of 16 kHz mono PCM.
	chunkBytes = 8192
)

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithModel sets the Deepgram model to use (e.g., "nova-3", "base").
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithLanguage sets the BCP-47 language code for recognition (e.g., "en", "de-DE").
func WithLanguage(language string) Option {
	return func(p *Provider) { p.language = language }
}

// WithEndpoint overrides the WebSocket endpoint. Primarily used in tests to
// point at a local mock server.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) { p.endpoint = endpoint }
}

// Provider implements transcribe.Provider backed by the Deepgram streaming API.
type Provider struct {
	apiKey   string
	model    string
	language string
	endpoint string
}

// New creates a new Deepgram Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:   apiKey,
		model:    defaultModel,
		language: defaultLanguage,
		endpoint: defaultEndpoint,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// ModelID returns the configured Deepgram model name.
func (p *Provider) ModelID() string { return p.model }

// deepgramResponse is the JSON structure of a Deepgram Results event.
type deepgramResponse struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// Transcribe streams the sample to Deepgram and collects the final results.
// Connection and protocol failures map to [transcribe.ErrService]; an empty
// recognition result maps to [transcribe.ErrUnintelligible].
func (p *Provider) Transcribe(ctx context.Context, sample audio.Sample) (string, error) {
	wsURL, err := p.buildURL(sample)
	if err != nil {
		return "", fmt.Errorf("%w: build URL: %w", transcribe.ErrService, err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return "", fmt.Errorf("%w: dial: %w", transcribe.ErrService, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "transcription complete")

	// Write the whole sample, then ask Deepgram to flush.
	for off := 0; off < len(sample.PCM); off += chunkBytes {
		end := min(off+chunkBytes, len(sample.PCM))
		if err := conn.Write(ctx, websocket.MessageBinary, sample.PCM[off:end]); err != nil {
			return "", fmt.Errorf("%w: send audio: %w", transcribe.ErrService, err)
		}
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`)); err != nil {
		return "", fmt.Errorf("%w: close stream: %w", transcribe.ErrService, err)
	}

	// Read until the server closes the socket, keeping final transcripts.
	var parts []string
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			var closeErr websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.StatusNormalClosure {
				break
			}
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %w", transcribe.ErrService, ctx.Err())
			}
			// Deepgram closes the socket after the final Results event; any
			// read error after CloseStream ends the collection.
			break
		}

		var resp deepgramResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}
		if resp.Type != "Results" || !resp.IsFinal || len(resp.Channel.Alternatives) == 0 {
			continue
		}
		text := strings.TrimSpace(resp.Channel.Alternatives[0].Transcript)
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

// buildURL constructs the streaming endpoint URL for the sample's format.
func (p *Provider) buildURL(sample audio.Sample) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("model", p.model)
	q.Set("language", p.language)
	q.Set("punctuate", "false")
	q.Set("interim_results", "false")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sample.SampleRate))
	q.Set("channels", strconv.Itoa(sample.Channels))

	u.RawQuery = q.Encode()
	return u.String(), nil
}
