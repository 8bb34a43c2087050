package audio_test

import (
	"testing"

	"github.com/scveran/voxauth/pkg/audio"
)

func TestPCMToFloat32(t *testing.T) {
	t.Parallel()

	// 0, +32767 (max), -32768 (min) as little-endian int16.
	pcm := []byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80}
	out := audio.PCMToFloat32(pcm)

	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if out[0] != 0 {
		t.Errorf("out[0] = %f, want 0", out[0])
	}
	if out[1] < 0.999 || out[1] > 1 {
		t.Errorf("out[1] = %f, want ~1.0", out[1])
	}
	if out[2] != -1 {
		t.Errorf("out[2] = %f, want -1.0", out[2])
	}
}

func TestPCMToFloat32_IgnoresTrailingOddByte(t *testing.T) {
	t.Parallel()

	out := audio.PCMToFloat32([]byte{0x00, 0x00, 0x7F})
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
}

func TestResampleMono16_Downsample(t *testing.T) {
	t.Parallel()

	// 1 s at 48 kHz down to 16 kHz: a third of the samples.
	in := make([]byte, 48000*2)
	out := audio.ResampleMono16(in, 48000, 16000)
	if len(out) != 16000*2 {
		t.Errorf("len = %d bytes, want %d", len(out), 16000*2)
	}
}

func TestResampleMono16_SameRateUnchanged(t *testing.T) {
	t.Parallel()

	in := []byte{1, 2, 3, 4}
	out := audio.ResampleMono16(in, 16000, 16000)
	if &out[0] != &in[0] {
		t.Error("same-rate resample should return the input unchanged")
	}
}
