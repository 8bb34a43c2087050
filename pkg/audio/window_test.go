package audio_test

import (
	"testing"
	"time"

	"github.com/scveran/voxauth/pkg/audio"
)

func TestFitWindow_PadsShortInput(t *testing.T) {
	t.Parallel()

	// 5 s of audio at 16 kHz into a 10 s window: zero-padded at the end.
	in := make([]float32, 5*16000)
	for i := range in {
		in[i] = 0.5
	}

	out := audio.FitWindow(in, 16000, 10*time.Second)
	if len(out) != 10*16000 {
		t.Fatalf("len = %d, want %d", len(out), 10*16000)
	}
	if out[5*16000-1] != 0.5 {
		t.Errorf("last original sample = %f, want 0.5", out[5*16000-1])
	}
	for i := 5 * 16000; i < len(out); i++ {
		if out[i] != 0 {
			t.Fatalf("padding sample %d = %f, want 0", i, out[i])
		}
	}
}

func TestFitWindow_TruncatesLongInput(t *testing.T) {
	t.Parallel()

	// 15 s at 16 kHz: only the first 10 s survive.
	in := make([]float32, 15*16000)
	in[10*16000-1] = 1 // last sample that must survive

	out := audio.FitWindow(in, 16000, 10*time.Second)
	if len(out) != 10*16000 {
		t.Fatalf("len = %d, want %d", len(out), 10*16000)
	}
	if out[len(out)-1] != 1 {
		t.Errorf("window boundary sample = %f, want 1", out[len(out)-1])
	}
}

func TestFitWindow_ExactLengthUnchanged(t *testing.T) {
	t.Parallel()

	in := make([]float32, 10*16000)
	out := audio.FitWindow(in, 16000, 10*time.Second)
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
}
