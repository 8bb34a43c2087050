package deepgram

import (
	"net/url"
	"testing"

	"github.com/scveran/voxauth/pkg/audio"
)

// ---- URL / query-param tests ----

func TestBuildURL_Defaults(t *testing.T) {
	p, err := New("test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sample := audio.Sample{SampleRate: 16000, Channels: 1, BitDepth: 16}
	rawURL, err := p.buildURL(sample)
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	q := u.Query()

	assertEqual(t, "model", "nova-3", q.Get("model"))
	assertEqual(t, "encoding", "linear16", q.Get("encoding"))
	assertEqual(t, "sample_rate", "16000", q.Get("sample_rate"))
	assertEqual(t, "channels", "1", q.Get("channels"))
}

func TestBuildURL_CustomModelAndLanguage(t *testing.T) {
	p, err := New("key", WithModel("base"), WithLanguage("de-DE"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(audio.Sample{SampleRate: 48000, Channels: 1, BitDepth: 16})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	q := u.Query()

	assertEqual(t, "model", "base", q.Get("model"))
	assertEqual(t, "language", "de-DE", q.Get("language"))
	assertEqual(t, "sample_rate", "48000", q.Get("sample_rate"))
}

func TestBuildURL_CustomEndpoint(t *testing.T) {
	p, err := New("key", WithEndpoint("wss://dg.internal.example.com/v1/listen"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(audio.Sample{SampleRate: 16000, Channels: 1, BitDepth: 16})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	assertEqual(t, "host", "dg.internal.example.com", u.Host)
}

func TestModelID_ReportsConfiguredModel(t *testing.T) {
	p, err := New("dg-secret", WithModel("base"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	assertEqual(t, "ModelID()", "base", p.ModelID())
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func assertEqual(t *testing.T, name, want, got string) {
	t.Helper()
	if want != got {
		t.Errorf("%s = %q, want %q", name, got, want)
	}
}
