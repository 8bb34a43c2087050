// Package httpmodel provides a voiceprint.Provider that talks to a local
// speaker-embedding model server via its REST API.
//
// The server wraps a single heavyweight pretrained model loaded once per
// process and exposes two endpoints:
//
//   - GET  /info  — model metadata: {"model_id": "...", "dimensions": N}
//   - POST /embed — inference: {"sample_rate": 16000, "waveform": [...]}
//     returning {"embedding": [...]}
//
// Model metadata is fetched lazily on first use and cached for the provider's
// lifetime, so constructing the provider does not require the model server to
// be up yet.
package httpmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/scveran/voxauth/pkg/audio"
	"github.com/scveran/voxauth/pkg/provider/voiceprint"
)

// Compile-time assertion that Provider satisfies voiceprint.Provider.
var _ voiceprint.Provider = (*Provider)(nil)

const (
	defaultTimeout = 30 * time.Second
	infoEndpoint   = "/info"
	embedEndpoint  = "/embed"
)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithTimeout sets the per-request HTTP timeout for calls to the model
// server. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// WithHTTPClient replaces the HTTP client entirely. Primarily used in tests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// Provider implements voiceprint.Provider against an embedding model server.
type Provider struct {
	baseURL    string
	httpClient *http.Client

	// Model metadata, resolved on first successful fetch and cached for the
	// provider's lifetime.
	infoMu     sync.Mutex
	infoLoaded bool
	info       modelInfo
}

// modelInfo is the JSON body of GET /info.
type modelInfo struct {
	ModelID    string `json:"model_id"`
	Dimensions int    `json:"dimensions"`
}

// embedRequest is the JSON body of POST /embed.
type embedRequest struct {
	SampleRate int       `json:"sample_rate"`
	Waveform   []float32 `json:"waveform"`
}

// embedResponse is the JSON body returned by POST /embed.
type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error"`
}

// New creates a Provider targeting the model server at baseURL
// (e.g., "http://localhost:8601").
func New(baseURL string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		return nil, errors.New("httpmodel: baseURL must not be empty")
	}
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Embed frames the sample into the model's analysis window and submits it for
// inference. Framing failures map to [voiceprint.ErrPreprocessing]; server
// and transport failures map to [voiceprint.ErrModel].
func (p *Provider) Embed(ctx context.Context, sample audio.Sample) ([]float32, error) {
	waveform := voiceprint.Preprocess(sample)
	if len(waveform) == 0 {
		return nil, fmt.Errorf("%w: empty waveform after framing", voiceprint.ErrPreprocessing)
	}

	body, err := json.Marshal(embedRequest{
		SampleRate: voiceprint.WindowSampleRate,
		Waveform:   waveform,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", voiceprint.ErrPreprocessing, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+embedEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", voiceprint.ErrModel, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", voiceprint.ErrModel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: server returned %d: %s", voiceprint.ErrModel, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", voiceprint.ErrModel, err)
	}
	if er.Error != "" {
		return nil, fmt.Errorf("%w: %s", voiceprint.ErrModel, er.Error)
	}
	if len(er.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding in response", voiceprint.ErrModel)
	}
	return er.Embedding, nil
}

// Dimensions returns the model's output dimensionality, fetching metadata
// from the server on first use. Returns 0 when the server is unreachable;
// callers that need a guaranteed value should call [Provider.Check] first.
func (p *Provider) Dimensions() int {
	info, err := p.modelInfo(context.Background())
	if err != nil {
		return 0
	}
	return info.Dimensions
}

// ModelID returns the model identifier reported by the server, or "" when
// the server is unreachable.
func (p *Provider) ModelID() string {
	info, err := p.modelInfo(context.Background())
	if err != nil {
		return ""
	}
	return info.ModelID
}

// Check probes the model server, forcing metadata resolution. Suitable as a
// readiness checker.
func (p *Provider) Check(ctx context.Context) error {
	_, err := p.modelInfo(ctx)
	return err
}

// modelInfo fetches and caches the server's model metadata. Metadata is
// immutable for the server's process lifetime (the model is loaded once at
// startup), so the first successful fetch is cached forever; failed fetches
// are retried on the next call so a server that comes up late still resolves.
func (p *Provider) modelInfo(ctx context.Context) (modelInfo, error) {
	p.infoMu.Lock()
	defer p.infoMu.Unlock()

	if p.infoLoaded {
		return p.info, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+infoEndpoint, nil)
	if err != nil {
		return modelInfo{}, fmt.Errorf("%w: build info request: %w", voiceprint.ErrModel, err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return modelInfo{}, fmt.Errorf("%w: fetch model info: %w", voiceprint.ErrModel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return modelInfo{}, fmt.Errorf("%w: info returned %d", voiceprint.ErrModel, resp.StatusCode)
	}
	var info modelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return modelInfo{}, fmt.Errorf("%w: decode model info: %w", voiceprint.ErrModel, err)
	}
	if info.Dimensions <= 0 {
		return modelInfo{}, fmt.Errorf("%w: server reported dimensions %d", voiceprint.ErrModel, info.Dimensions)
	}

	p.info = info
	p.infoLoaded = true
	return p.info, nil
}
