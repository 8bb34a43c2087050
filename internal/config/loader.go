package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt": {"whisper-native", "deepgram", "openai"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Auth
	if t := cfg.Auth.AcceptThreshold; t != nil && (*t <= -1 || *t > 1) {
		errs = append(errs, fmt.Errorf("auth.accept_threshold %v is out of range (-1, 1]", *t))
	}

	// Audio
	if cfg.Audio.Channels < 0 || cfg.Audio.BitDepth < 0 || cfg.Audio.MinSampleRate < 0 {
		errs = append(errs, errors.New("audio format requirements must not be negative"))
	}

	// Providers
	validateProviderName("stt", cfg.Providers.STT.Name)
	if cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt.name is required"))
	}
	switch cfg.Providers.STT.Name {
	case "whisper-native":
		if cfg.Providers.STT.Model == "" {
			errs = append(errs, errors.New("providers.stt.model (GGML model path) is required for whisper-native"))
		}
	case "deepgram", "openai":
		if cfg.Providers.STT.APIKey == "" {
			errs = append(errs, fmt.Errorf("providers.stt.api_key is required for %s", cfg.Providers.STT.Name))
		}
	}
	if cfg.Providers.Voiceprint.BaseURL == "" {
		errs = append(errs, errors.New("providers.voiceprint.base_url is required"))
	}
	if cfg.Providers.Voiceprint.Timeout < 0 {
		errs = append(errs, errors.New("providers.voiceprint.timeout must not be negative"))
	}

	// Storage
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; enrollments will be kept in memory and lost on restart")
	}
	if cfg.Storage.PostgresDSN != "" && cfg.Storage.EmbeddingDimensions <= 0 {
		errs = append(errs, errors.New("storage.embedding_dimensions is required when storage.postgres_dsn is set"))
	}

	// Artifacts
	if cfg.Artifacts.CleanupRetries < 0 {
		errs = append(errs, errors.New("artifacts.cleanup_retries must not be negative"))
	}
	if cfg.Artifacts.CleanupBackoff < 0 {
		errs = append(errs, errors.New("artifacts.cleanup_backoff must not be negative"))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
