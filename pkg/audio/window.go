package audio

import "time"

// FitWindow frames a float32 waveform into a fixed-duration analysis window
// at the given sample rate: longer input is truncated to the first window
// seconds, shorter input is zero-padded at the end to exactly the window
// length. Embedding models operate on a constant input shape, so every
// waveform must pass through this before inference.
//
// The returned slice is always exactly rate × window samples long. When the
// input needs truncation the returned slice aliases the input's backing
// array; callers must not mutate it afterwards.
func FitWindow(waveform []float32, rate int, window time.Duration) []float32 {
	target := int(int64(rate) * int64(window) / int64(time.Second))
	if target <= 0 {
		return nil
	}
	if len(waveform) >= target {
		return waveform[:target]
	}
	padded := make([]float32, target)
	copy(padded, waveform)
	return padded
}
