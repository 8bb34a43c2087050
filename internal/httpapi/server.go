// Package httpapi is the HTTP transport boundary of voxauth. Handlers do
// multipart plumbing and artifact lifecycle only; every authentication
// decision is made by the engine and mapped here onto JSON bodies and
// status codes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scveran/voxauth/internal/artifact"
	"github.com/scveran/voxauth/internal/auth"
	"github.com/scveran/voxauth/internal/health"
	"github.com/scveran/voxauth/internal/observe"
	"github.com/scveran/voxauth/pkg/audio"
)

const (
	// maxUploadBytes caps one multipart upload. A 10 s mono 16-bit
	// recording at 48 kHz is under 1 MiB, so 16 MiB is generous.
	maxUploadBytes = 16 << 20

	// pipelineTimeout bounds one enrollment or verification end to end.
	// The engine itself never imposes deadlines.
	pipelineTimeout = 30 * time.Second

	// audioField is the multipart form field carrying the recording.
	audioField = "audio"

	// dateLayout is the accepted date-of-birth format.
	dateLayout = "2006-01-02"
)

// response is the JSON body shared by all authentication endpoints.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	// Code is the machine-readable failure kind, empty on success.
	Code string `json:"code,omitempty"`

	// Passphrase echoes the recognised passphrase on enrollment and preview.
	Passphrase string `json:"passphrase,omitempty"`

	// MatchPercentage is set on verification outcomes that scored, and on
	// passphrase mismatches (always 0 there).
	MatchPercentage *float64 `json:"match_percentage,omitempty"`
}

// Server wires the authentication engine to HTTP routes.
type Server struct {
	engine    *auth.Engine
	artifacts *artifact.Manager
	health    *health.Handler
}

// NewServer creates a Server. health may be nil to skip probe routes.
func NewServer(engine *auth.Engine, artifacts *artifact.Manager, h *health.Handler) *Server {
	return &Server{engine: engine, artifacts: artifacts, health: h}
}

// Router builds the full route table: the authentication API, health probes,
// and the Prometheus scrape endpoint. API routes are wrapped in CORS and
// observability middleware.
func (s *Server) Router(m *observe.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/enroll", s.handleEnroll)
	mux.HandleFunc("POST /api/verify", s.handleVerify)
	mux.HandleFunc("POST /api/passphrase/preview", s.handlePreview)
	if s.health != nil {
		s.health.Register(mux)
	}
	mux.Handle("GET /metrics", promhttp.Handler())

	return corsMiddleware(observe.Middleware(m)(mux))
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pipelineTimeout)
	defer cancel()

	form, file, err := s.parseUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	var missing []string
	for _, f := range []string{"fullname", "email", "username", "dob"} {
		if form(f) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
		return
	}
	dob, err := time.Parse(dateLayout, form("dob"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "dob must be formatted as "+dateLayout)
		return
	}
	identity := form("username")

	sample, art, err := s.ingest(ctx, identity, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer s.artifacts.Cleanup(ctx, art)

	out := s.engine.Enroll(ctx, auth.EnrollRequest{
		Identity:    identity,
		FullName:    form("fullname"),
		Email:       form("email"),
		DateOfBirth: dob,
		Sample:      sample,
	})
	if !out.Success {
		writeJSON(w, enrollStatus(out.Kind), response{
			Message: out.Reason,
			Code:    string(out.Kind),
		})
		return
	}
	writeJSON(w, http.StatusOK, response{
		Success:    true,
		Message:    out.Reason,
		Passphrase: out.Passphrase,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pipelineTimeout)
	defer cancel()

	form, file, err := s.parseUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	identity := form("username")
	if identity == "" {
		writeError(w, http.StatusBadRequest, "Username required")
		return
	}

	sample, art, err := s.ingest(ctx, identity, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer s.artifacts.Cleanup(ctx, art)

	out := s.engine.Verify(ctx, identity, sample)
	resp := response{
		Success: out.Success,
		Message: out.Reason,
	}
	if out.Kind == auth.FailureNone || scoredKind(out.Kind) {
		pct := out.MatchPercentage
		resp.MatchPercentage = &pct
	}
	if !out.Success {
		resp.Code = string(out.Kind)
		writeJSON(w, verifyStatus(out.Kind), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePreview transcribes a recording without touching the credential
// store, so the UI can echo the passphrase back before the user commits to
// enrollment.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pipelineTimeout)
	defer cancel()

	form, file, err := s.parseUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	identity := form("username")
	if identity == "" {
		identity = "preview"
	}

	sample, art, err := s.ingest(ctx, identity, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer s.artifacts.Cleanup(ctx, art)

	transcript, err := s.engine.Preview(ctx, sample)
	if err != nil {
		var fe *auth.FormatError
		if errors.As(err, &fe) {
			writeError(w, http.StatusBadRequest, fe.Reason)
			return
		}
		writeError(w, http.StatusBadRequest, "Speech recognition failed")
		return
	}
	writeJSON(w, http.StatusOK, response{
		Success:    true,
		Message:    "Voice captured successfully",
		Passphrase: transcript,
	})
}

// parseUpload enforces the upload cap and extracts the audio file plus a
// form-value accessor from the multipart body.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (func(string) string, multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("audio upload exceeds %d bytes", int64(maxUploadBytes))
		}
		return nil, nil, errors.New("request must be multipart/form-data")
	}
	file, header, err := r.FormFile(audioField)
	if err != nil {
		return nil, nil, errors.New("No audio file provided")
	}
	if header.Filename == "" {
		file.Close()
		return nil, nil, errors.New("No selected audio file")
	}
	return r.FormValue, file, nil
}

// ingest spools the upload to a transient artifact and decodes it. The
// returned artifact is non-nil even when decoding fails so callers can
// always schedule cleanup; on artifact creation failure it is nil.
func (s *Server) ingest(ctx context.Context, identity string, file multipart.File) (audio.Sample, *artifact.Artifact, error) {
	art, err := s.artifacts.Create(identity, file)
	if err != nil {
		observe.Logger(ctx).Error("artifact create failed", "error", err)
		return audio.Sample{}, nil, errors.New("could not store audio upload")
	}

	f, err := os.Open(art.Path)
	if err != nil {
		return audio.Sample{}, art, errors.New("could not read audio upload")
	}
	defer f.Close()

	sample, err := audio.DecodeWAV(f)
	if err != nil {
		if errors.Is(err, audio.ErrNotWAV) {
			return audio.Sample{}, art, errors.New("Invalid WAV file")
		}
		return audio.Sample{}, art, fmt.Errorf("Invalid WAV file: %v", err)
	}
	return sample, art, nil
}

// enrollStatus maps an enrollment failure kind to its HTTP status.
func enrollStatus(kind auth.FailureKind) int {
	switch kind {
	case auth.FailureDuplicateIdentity:
		return http.StatusConflict
	case auth.FailureInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// verifyStatus maps a verification failure kind to its HTTP status. Failed
// authentication attempts are 401 regardless of which stage rejected them,
// so callers cannot probe the pipeline; malformed input and unknown
// identities are the exceptions.
func verifyStatus(kind auth.FailureKind) int {
	switch kind {
	case auth.FailureInvalidAudio:
		return http.StatusBadRequest
	case auth.FailureIdentityNotFound:
		return http.StatusNotFound
	case auth.FailureInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

// scoredKind reports whether a verification failure carries a meaningful
// match percentage.
func scoredKind(kind auth.FailureKind) bool {
	return kind == auth.FailurePassphraseMismatch || kind == auth.FailureVoiceprintMismatch
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// The status line is already on the wire, so all we can do is log.
		slog.Error("encoding response body", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Message: message})
}
