package whisper

import (
	"math"
	"testing"
)

const testRate = 16000

// tone fills n samples with a sine of the given amplitude.
func tone(n int, amplitude float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*440*float64(i)/testRate))
	}
	return out
}

func TestTrimLeadingNoise_DropsQuietLeadIn(t *testing.T) {
	t.Parallel()

	// 300 ms of low-level noise, 500 ms more of the same, then loud speech.
	lead := tone(testRate*800/1000, 0.01)
	speech := tone(testRate, 0.5)
	waveform := append(append([]float32{}, lead...), speech...)

	got := trimLeadingNoise(waveform, testRate)
	if len(got) >= len(waveform) {
		t.Fatal("quiet lead-in was not trimmed")
	}
	if len(got) < len(speech) {
		t.Errorf("trimmed into the speech itself: kept %d of %d speech samples", len(got), len(speech))
	}
}

func TestTrimLeadingNoise_KeepsImmediateSpeech(t *testing.T) {
	t.Parallel()

	// Speech from sample zero: the calibration segment measures speech, the
	// gate sits above everything, and the recording must survive whole.
	waveform := tone(testRate, 0.5)
	got := trimLeadingNoise(waveform, testRate)
	if len(got) != len(waveform) {
		t.Errorf("kept %d of %d samples, want all", len(got), len(waveform))
	}
}

func TestTrimLeadingNoise_SilentCalibrationKeepsAll(t *testing.T) {
	t.Parallel()

	// Digital silence followed by speech: no usable noise floor, so the
	// recording is kept intact rather than gated on garbage.
	silence := make([]float32, testRate/2)
	waveform := append(silence, tone(testRate, 0.5)...)
	got := trimLeadingNoise(waveform, testRate)
	if len(got) != len(waveform) {
		t.Errorf("kept %d of %d samples, want all", len(got), len(waveform))
	}
}

func TestTrimLeadingNoise_ShortRecordingUntouched(t *testing.T) {
	t.Parallel()

	waveform := tone(testRate/10, 0.2) // shorter than the calibration segment
	got := trimLeadingNoise(waveform, testRate)
	if len(got) != len(waveform) {
		t.Errorf("kept %d of %d samples, want all", len(got), len(waveform))
	}
}

func TestRMS(t *testing.T) {
	t.Parallel()

	if got := rms(nil); got != 0 {
		t.Errorf("rms(nil) = %v, want 0", got)
	}
	// Constant signal: RMS equals the absolute value.
	constant := make([]float32, 100)
	for i := range constant {
		constant[i] = 0.25
	}
	if got := rms(constant); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("rms(constant 0.25) = %v, want 0.25", got)
	}
}
