package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/scveran/voxauth/internal/credential"
	"github.com/scveran/voxauth/internal/observe"
	"github.com/scveran/voxauth/pkg/audio"
	"github.com/scveran/voxauth/pkg/provider/transcribe"
	"github.com/scveran/voxauth/pkg/provider/voiceprint"
)

// DefaultAcceptThreshold is the cosine similarity a verification attempt
// must reach to be accepted. Tunable via [EngineConfig]; observed deployments
// run anywhere between 0.40 and 0.75, so treat this as a starting point to
// calibrate against a labelled acceptance/rejection set.
const DefaultAcceptThreshold = 0.75

// EngineConfig holds the decision parameters of the pipeline.
type EngineConfig struct {
	// AcceptThreshold is the minimum cosine similarity for a successful
	// verification. Nil means DefaultAcceptThreshold; an explicit 0 is a
	// legitimate (permissive) setting, not "unset".
	AcceptThreshold *float64

	// Validator configures the audio format gate.
	Validator ValidatorConfig
}

// EnrollRequest carries everything one enrollment attempt needs.
type EnrollRequest struct {
	// Identity is the unique username being enrolled.
	Identity string

	// Profile fields stored with the credential; never part of the decision.
	FullName    string
	Email       string
	DateOfBirth time.Time

	// Sample is the decoded passphrase recording.
	Sample audio.Sample
}

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithMetrics replaces the metrics instance, primarily so tests can inject
// an isolated meter provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine orchestrates the enrollment and verification pipelines. Each call
// is an independent unit of work; the only shared state is the credential
// store, so any number of invocations may run concurrently.
//
// Stage order within one invocation is strict and cost-ordered: the format
// gate runs before transcription, and on verification the passphrase
// comparison short-circuits before embedding extraction — the cheap checks
// always run first so wrong input never pays for model inference.
type Engine struct {
	threshold   float64
	validator   *Validator
	transcriber transcribe.Provider
	voiceprints voiceprint.Provider
	store       credential.Store
	metrics     *observe.Metrics
}

// NewEngine creates an Engine from its collaborators.
func NewEngine(cfg EngineConfig, store credential.Store, transcriber transcribe.Provider, voiceprints voiceprint.Provider, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("auth: store must not be nil")
	}
	if transcriber == nil {
		return nil, errors.New("auth: transcriber must not be nil")
	}
	if voiceprints == nil {
		return nil, errors.New("auth: voiceprint provider must not be nil")
	}
	threshold := DefaultAcceptThreshold
	if cfg.AcceptThreshold != nil {
		threshold = *cfg.AcceptThreshold
	}
	if threshold <= -1 || threshold > 1 {
		return nil, fmt.Errorf("auth: accept threshold %v outside (-1, 1]", threshold)
	}

	e := &Engine{
		threshold:   threshold,
		validator:   NewValidator(cfg.Validator),
		transcriber: transcriber,
		voiceprints: voiceprints,
		store:       store,
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e, nil
}

// Enroll runs the enrollment pipeline: format gate, transcription, voiceprint
// extraction, credential creation. Every failure is terminal and typed; no
// partial state is persisted.
func (e *Engine) Enroll(ctx context.Context, req EnrollRequest) EnrollmentOutcome {
	ctx, span := observe.StartSpan(ctx, "auth.enroll")
	defer span.End()
	done := e.begin(ctx, "enroll")

	fail := func(kind FailureKind, reason string) EnrollmentOutcome {
		done(kind)
		return EnrollmentOutcome{Kind: kind, Reason: reason}
	}

	if err := e.validator.Check(req.Sample); err != nil {
		var fe *FormatError
		errors.As(err, &fe)
		return fail(FailureInvalidAudio, fe.Reason)
	}

	transcript, err := e.transcribeStage(ctx, req.Sample)
	if err != nil {
		return fail(FailureSpeechRecognition, speechFailureReason(err))
	}

	embedding, err := e.embedStage(ctx, req.Sample)
	if err != nil {
		return fail(FailureEmbedding, "voiceprint generation failed")
	}

	cred := &credential.VoiceCredential{
		Identity:    req.Identity,
		Passphrase:  transcript,
		Embedding:   embedding,
		FullName:    req.FullName,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.store.Create(ctx, cred); err != nil {
		if errors.Is(err, credential.ErrDuplicateIdentity) {
			return fail(FailureDuplicateIdentity, "identity is already enrolled")
		}
		observe.Logger(ctx).Error("credential create failed", "identity", req.Identity, "error", err)
		return fail(FailureInternal, "could not store credential")
	}

	observe.Logger(ctx).Info("enrollment complete",
		"identity", req.Identity,
		"embedding_dims", len(embedding),
	)
	done(FailureNone)
	return EnrollmentOutcome{
		Success:    true,
		Passphrase: transcript,
		Reason:     "Registration successful",
	}
}

// Verify runs the verification pipeline against the stored credential for
// identity. The credential lookup runs first so an unknown identity never
// triggers transcription or embedding; the passphrase comparison
// short-circuits before embedding extraction when the spoken phrase is
// simply wrong.
func (e *Engine) Verify(ctx context.Context, identity string, sample audio.Sample) VerificationOutcome {
	ctx, span := observe.StartSpan(ctx, "auth.verify")
	defer span.End()
	done := e.begin(ctx, "verify")

	fail := func(kind FailureKind, reason string) VerificationOutcome {
		done(kind)
		return VerificationOutcome{Kind: kind, Reason: reason}
	}

	cred, err := e.store.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return fail(FailureIdentityNotFound, "identity not found")
		}
		observe.Logger(ctx).Error("credential lookup failed", "identity", identity, "error", err)
		return fail(FailureInternal, "could not load credential")
	}

	if err := e.validator.Check(sample); err != nil {
		var fe *FormatError
		errors.As(err, &fe)
		return fail(FailureInvalidAudio, fe.Reason)
	}

	transcript, err := e.transcribeStage(ctx, sample)
	if err != nil {
		return fail(FailureSpeechRecognition, speechFailureReason(err))
	}

	if transcript != cred.Passphrase {
		if isNearMiss(transcript, cred.Passphrase) {
			observe.Logger(ctx).Warn("passphrase near miss, possible recognition slip",
				"identity", identity,
			)
		}
		return fail(FailurePassphraseMismatch, "Passphrase does not match")
	}

	embedding, err := e.embedStage(ctx, sample)
	if err != nil {
		return fail(FailureEmbedding, "voiceprint generation failed")
	}

	similarity, err := CosineSimilarity(embedding, cred.Embedding)
	if err != nil {
		if errors.Is(err, ErrDegenerateEmbedding) {
			return fail(FailureDegenerateEmbedding, "voiceprint could not be compared")
		}
		observe.Logger(ctx).Error("similarity scoring failed", "identity", identity, "error", err)
		return fail(FailureInternal, "could not score voiceprint")
	}

	pct := MatchPercentage(similarity)
	observe.Logger(ctx).Info("verification scored",
		"identity", identity,
		"match_percentage", pct,
	)

	if similarity < e.threshold {
		done(FailureVoiceprintMismatch)
		return VerificationOutcome{
			MatchPercentage: pct,
			Kind:            FailureVoiceprintMismatch,
			Reason:          "Voiceprint does not match",
		}
	}

	done(FailureNone)
	return VerificationOutcome{
		Success:         true,
		MatchPercentage: pct,
		Reason:          "Login successful",
	}
}

// Preview runs the format gate and transcription only, returning the
// normalised transcript. It never touches the credential store; enrollment
// UIs use it to echo the recognised passphrase before the user commits.
func (e *Engine) Preview(ctx context.Context, sample audio.Sample) (string, error) {
	ctx, span := observe.StartSpan(ctx, "auth.preview")
	defer span.End()

	if err := e.validator.Check(sample); err != nil {
		return "", err
	}
	return e.transcribeStage(ctx, sample)
}

// begin marks an invocation in flight and returns the completion callback
// that records duration and outcome.
func (e *Engine) begin(ctx context.Context, operation string) func(FailureKind) {
	start := time.Now()
	e.metrics.ActiveInvocations.Add(ctx, 1)
	return func(kind FailureKind) {
		e.metrics.ActiveInvocations.Add(ctx, -1)
		outcome := "success"
		if kind != FailureNone {
			outcome = string(kind)
		}
		e.metrics.DecisionDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("operation", operation),
		))
		e.metrics.Decisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("outcome", outcome),
		))
	}
}

// transcribeStage calls the transcription port and normalises the result.
func (e *Engine) transcribeStage(ctx context.Context, sample audio.Sample) (string, error) {
	start := time.Now()
	text, err := e.transcriber.Transcribe(ctx, sample)
	e.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		e.metrics.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", "transcribe"),
		))
		observe.Logger(ctx).Warn("transcription failed", "error", err)
		return "", err
	}

	transcript := NormalizePassphrase(text)
	if transcript == "" {
		return "", transcribe.ErrUnintelligible
	}
	return transcript, nil
}

// embedStage calls the voiceprint port.
func (e *Engine) embedStage(ctx context.Context, sample audio.Sample) ([]float32, error) {
	start := time.Now()
	vec, err := e.voiceprints.Embed(ctx, sample)
	e.metrics.EmbeddingDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		e.metrics.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", "voiceprint"),
		))
		observe.Logger(ctx).Warn("voiceprint extraction failed", "error", err)
		return nil, err
	}
	return vec, nil
}

// speechFailureReason maps a transcription failure to its caller-visible
// reason, keeping "couldn't understand you" distinct from a backend outage.
func speechFailureReason(err error) string {
	if errors.Is(err, transcribe.ErrUnintelligible) {
		return "could not understand the audio"
	}
	return "speech recognition service failed"
}

// AcceptThreshold exposes the configured threshold, mainly for logging the
// effective configuration at startup.
func (e *Engine) AcceptThreshold() float64 { return e.threshold }
