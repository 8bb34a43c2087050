// Package audio provides the audio primitives shared by the voxauth pipeline:
// WAV decoding into a Sample with format metadata, PCM conversion helpers,
// and the fixed-length analysis-window framing used for voiceprint
// extraction.
package audio

import "time"

// Sample is one decoded audio recording flowing through a single pipeline
// invocation. It holds the raw PCM payload plus the format metadata derived
// from the container header. A Sample is owned by exactly one invocation and
// must not be shared across concurrent enrollments or verifications.
type Sample struct {
	// PCM is the little-endian integer PCM payload (BitDepth bits per sample,
	// channels interleaved).
	PCM []byte

	// SampleRate in Hz (e.g., 16000).
	SampleRate int

	// Channels is the number of interleaved channels. 1 = mono.
	Channels int

	// BitDepth is the number of bits per sample (e.g., 16).
	BitDepth int
}

// Duration returns the playback length of the sample, derived from the PCM
// payload size and the format metadata. Returns 0 for malformed metadata.
func (s Sample) Duration() time.Duration {
	bytesPerFrame := s.Channels * s.BitDepth / 8
	if bytesPerFrame <= 0 || s.SampleRate <= 0 {
		return 0
	}
	frames := len(s.PCM) / bytesPerFrame
	return time.Duration(frames) * time.Second / time.Duration(s.SampleRate)
}

// Frames returns the number of sample frames in the PCM payload.
func (s Sample) Frames() int {
	bytesPerFrame := s.Channels * s.BitDepth / 8
	if bytesPerFrame <= 0 {
		return 0
	}
	return len(s.PCM) / bytesPerFrame
}
