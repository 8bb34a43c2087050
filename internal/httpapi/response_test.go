package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSONEncodeFailureKeepsStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	// A channel is not JSON-encodable; the status already on the wire must
	// stand and no fallback body may follow it.
	writeJSON(rec, http.StatusUnauthorized, make(chan int))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := rec.Body.String(); got != "" {
		t.Errorf("body = %q, want empty", got)
	}
}
