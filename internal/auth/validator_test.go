package auth_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/scveran/voxauth/internal/auth"
	"github.com/scveran/voxauth/pkg/audio"
)

func TestValidatorCheck(t *testing.T) {
	t.Parallel()

	v := auth.NewValidator(auth.ValidatorConfig{})

	tests := []struct {
		name       string
		sample     audio.Sample
		wantReason string // substring of the failure reason, empty for pass
	}{
		{
			name:   "mono 16-bit 16kHz passes",
			sample: audio.Sample{SampleRate: 16000, Channels: 1, BitDepth: 16},
		},
		{
			name:   "higher sample rate passes",
			sample: audio.Sample{SampleRate: 48000, Channels: 1, BitDepth: 16},
		},
		{
			name:       "stereo rejected",
			sample:     audio.Sample{SampleRate: 16000, Channels: 2, BitDepth: 16},
			wantReason: "channel",
		},
		{
			name:       "8-bit rejected",
			sample:     audio.Sample{SampleRate: 16000, Channels: 1, BitDepth: 8},
			wantReason: "16-bit",
		},
		{
			name:       "low sample rate rejected",
			sample:     audio.Sample{SampleRate: 8000, Channels: 1, BitDepth: 16},
			wantReason: "sample rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Check(tt.sample)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("Check() = %v, want nil", err)
				}
				return
			}
			var fe *auth.FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Check() = %v, want *FormatError", err)
			}
			if !strings.Contains(fe.Reason, tt.wantReason) {
				t.Errorf("reason %q does not mention %q", fe.Reason, tt.wantReason)
			}
		})
	}
}

func TestValidatorCustomConfig(t *testing.T) {
	t.Parallel()

	v := auth.NewValidator(auth.ValidatorConfig{MinSampleRate: 44100})
	err := v.Check(audio.Sample{SampleRate: 16000, Channels: 1, BitDepth: 16})
	if err == nil {
		t.Fatal("Check() accepted 16 kHz with a 44.1 kHz floor")
	}
}
