// Package observe provides application-wide observability primitives for
// voxauth: OpenTelemetry metrics, tracing, structured logging helpers, and
// HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxauth metrics.
const meterName = "github.com/scveran/voxauth"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// TranscriptionDuration tracks speech-to-text latency.
	TranscriptionDuration metric.Float64Histogram

	// EmbeddingDuration tracks voiceprint extraction latency.
	EmbeddingDuration metric.Float64Histogram

	// DecisionDuration tracks end-to-end enrollment/verification latency.
	// Use with attribute.String("operation", "enroll"|"verify").
	DecisionDuration metric.Float64Histogram

	// --- Counters ---

	// Decisions counts completed pipeline invocations. Use with attributes:
	//   attribute.String("operation", ...), attribute.String("outcome", ...)
	// where outcome is "success" or the failure kind.
	Decisions metric.Int64Counter

	// ProviderErrors counts transcription/embedding backend errors. Use with
	// attribute.String("provider", "transcribe"|"voiceprint").
	ProviderErrors metric.Int64Counter

	// CleanupRetries counts transient-artifact removal retries.
	CleanupRetries metric.Int64Counter

	// CleanupFailures counts artifacts that survived every removal attempt.
	CleanupFailures metric.Int64Counter

	// --- Gauges ---

	// ActiveInvocations tracks pipeline invocations currently in flight.
	ActiveInvocations metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// pipelines dominated by model-service calls.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranscriptionDuration, err = m.Float64Histogram("voxauth.transcription.duration",
		metric.WithDescription("Latency of passphrase transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EmbeddingDuration, err = m.Float64Histogram("voxauth.embedding.duration",
		metric.WithDescription("Latency of voiceprint extraction."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DecisionDuration, err = m.Float64Histogram("voxauth.decision.duration",
		metric.WithDescription("End-to-end enrollment/verification latency by operation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Decisions, err = m.Int64Counter("voxauth.decisions",
		metric.WithDescription("Completed pipeline invocations by operation and outcome."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("voxauth.provider.errors",
		metric.WithDescription("Backend failures by provider."),
	); err != nil {
		return nil, err
	}
	if met.CleanupRetries, err = m.Int64Counter("voxauth.artifact.cleanup_retries",
		metric.WithDescription("Transient-artifact removal retries."),
	); err != nil {
		return nil, err
	}
	if met.CleanupFailures, err = m.Int64Counter("voxauth.artifact.cleanup_failures",
		metric.WithDescription("Artifacts that survived every removal attempt."),
	); err != nil {
		return nil, err
	}

	if met.ActiveInvocations, err = m.Int64UpDownCounter("voxauth.active_invocations",
		metric.WithDescription("Pipeline invocations currently in flight."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("voxauth.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}
