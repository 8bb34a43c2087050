// Command voxauth is the voice-biometric authentication server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scveran/voxauth/internal/artifact"
	"github.com/scveran/voxauth/internal/auth"
	"github.com/scveran/voxauth/internal/config"
	"github.com/scveran/voxauth/internal/credential"
	"github.com/scveran/voxauth/internal/credential/memstore"
	"github.com/scveran/voxauth/internal/credential/postgres"
	"github.com/scveran/voxauth/internal/health"
	"github.com/scveran/voxauth/internal/httpapi"
	"github.com/scveran/voxauth/internal/observe"
	"github.com/scveran/voxauth/pkg/provider/transcribe"
	"github.com/scveran/voxauth/pkg/provider/transcribe/deepgram"
	oaistt "github.com/scveran/voxauth/pkg/provider/transcribe/openai"
	"github.com/scveran/voxauth/pkg/provider/transcribe/whisper"
	"github.com/scveran/voxauth/pkg/provider/voiceprint/httpmodel"
)

// version is set via -ldflags at release build time.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxauth: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxauth: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxauth starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxauth",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Credential store ──────────────────────────────────────────────────────
	var (
		store   credential.Store
		checks  []health.Checker
		closers []func()
	)
	if cfg.Storage.PostgresDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN, cfg.Storage.EmbeddingDimensions)
		if err != nil {
			slog.Error("failed to connect credential store", "err", err)
			return 1
		}
		closers = append(closers, pgStore.Close)
		checks = append(checks, health.Checker{Name: "database", Check: pgStore.Check})
		store = pgStore
		slog.Info("credential store ready", "backend", "postgres", "dimensions", cfg.Storage.EmbeddingDimensions)
	} else {
		store = memstore.New()
		slog.Warn("credential store ready", "backend", "memory", "note", "enrollments are lost on restart")
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	transcriber, closeTranscriber, err := buildTranscriber(cfg.Providers.STT)
	if err != nil {
		slog.Error("failed to build transcription provider", "err", err)
		return 1
	}
	if closeTranscriber != nil {
		closers = append(closers, closeTranscriber)
	}

	voiceprints, err := buildVoiceprint(cfg.Providers.Voiceprint)
	if err != nil {
		slog.Error("failed to build voiceprint provider", "err", err)
		return 1
	}
	checks = append(checks, health.Checker{Name: "voiceprint_model", Check: voiceprints.Check})

	// ── Engine and transport ──────────────────────────────────────────────────
	engine, err := auth.NewEngine(auth.EngineConfig{
		AcceptThreshold: cfg.Auth.AcceptThreshold,
		Validator: auth.ValidatorConfig{
			Channels:      cfg.Audio.Channels,
			BitDepth:      cfg.Audio.BitDepth,
			MinSampleRate: cfg.Audio.MinSampleRate,
		},
	}, store, transcriber, voiceprints)
	if err != nil {
		slog.Error("failed to build engine", "err", err)
		return 1
	}

	artifacts, err := artifact.NewManager(artifact.Config{
		Dir:     cfg.Artifacts.Dir,
		Retries: cfg.Artifacts.CleanupRetries,
		Backoff: cfg.Artifacts.CleanupBackoff.Std(),
	})
	if err != nil {
		slog.Error("failed to prepare artifact storage", "err", err)
		return 1
	}

	api := httpapi.NewServer(engine, artifacts, health.New(checks...))

	listenAddr := cfg.Server.ListenAddr
	if listenAddr == "" {
		listenAddr = ":8080"
	}
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           api.Router(observe.DefaultMetrics()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("server ready",
		"listen_addr", listenAddr,
		"stt_provider", cfg.Providers.STT.Name,
		"stt_model", transcriber.ModelID(),
		"accept_threshold", engine.AcceptThreshold(),
	)

	// ── Serve until signal ────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cfg.Server.TLS != nil {
			err = srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	exitCode := 0
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		exitCode = 1
	}

	for _, closeFn := range closers {
		closeFn()
	}
	slog.Info("goodbye")
	return exitCode
}

// buildTranscriber instantiates the configured speech-to-text provider. The
// returned close function may be nil when the provider holds no resources.
func buildTranscriber(entry config.ProviderEntry) (transcribe.Provider, func(), error) {
	switch entry.Name {
	case "whisper-native":
		var opts []whisper.Option
		if entry.Language != "" {
			opts = append(opts, whisper.WithLanguage(entry.Language))
		}
		p, err := whisper.New(entry.Model, opts...)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {
			if err := p.Close(); err != nil {
				slog.Warn("whisper close error", "err", err)
			}
		}, nil

	case "deepgram":
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, deepgram.WithLanguage(entry.Language))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithEndpoint(entry.BaseURL))
		}
		p, err := deepgram.New(entry.APIKey, opts...)
		return p, nil, err

	case "openai":
		var opts []oaistt.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaistt.WithBaseURL(entry.BaseURL))
		}
		p, err := oaistt.New(entry.APIKey, entry.Model, opts...)
		return p, nil, err

	default:
		return nil, nil, fmt.Errorf("unknown stt provider %q", entry.Name)
	}
}

// buildVoiceprint instantiates the speaker-embedding model client.
func buildVoiceprint(cfg config.VoiceprintConfig) (*httpmodel.Provider, error) {
	var opts []httpmodel.Option
	if cfg.Timeout != 0 {
		opts = append(opts, httpmodel.WithTimeout(cfg.Timeout.Std()))
	}
	return httpmodel.New(cfg.BaseURL, opts...)
}

// newLogger builds the process-wide slog logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var l slog.Level
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
