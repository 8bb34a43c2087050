package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// wavFormatPCM is the only audio format tag accepted by DecodeWAV.
const wavFormatPCM = 1

// Declared chunk sizes come straight off the wire, so they are capped before
// any buffer is sized from them. A fmt chunk is 16-40 bytes in practice;
// maxDataChunkBytes comfortably exceeds the transport's upload limit.
const (
	maxFmtChunkBytes  = 1 << 10
	maxDataChunkBytes = 64 << 20
)

// ErrChunkTooLarge is returned by DecodeWAV when a chunk header declares a
// size beyond what any legitimate upload would carry.
var ErrChunkTooLarge = errors.New("audio: wav chunk exceeds size limit")

// ErrNotWAV is returned by DecodeWAV when the input does not carry a
// RIFF/WAVE signature at all.
var ErrNotWAV = errors.New("audio: not a RIFF/WAVE stream")

// DecodeWAV parses a PCM WAV stream and returns its payload and format
// metadata as a [Sample]. It walks the RIFF chunk list, so containers with
// extra chunks (LIST, fact, cue) between fmt and data decode fine.
//
// Only uncompressed integer PCM (format tag 1) is supported; the transport
// boundary is expected to transcode anything else before it reaches the
// pipeline. Format acceptability (mono, bit depth, minimum rate) is not
// judged here — that is the validator's job.
func DecodeWAV(r io.Reader) (Sample, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Sample{}, fmt.Errorf("audio: read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Sample{}, ErrNotWAV
	}

	var (
		sample  Sample
		sawFmt  bool
		sawData bool
	)

	for !sawData {
		var chunkHdr [8]byte
		if _, err := io.ReadFull(r, chunkHdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return Sample{}, errors.New("audio: wav stream has no data chunk")
			}
			return Sample{}, fmt.Errorf("audio: read chunk header: %w", err)
		}
		id := string(chunkHdr[0:4])
		size := binary.LittleEndian.Uint32(chunkHdr[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return Sample{}, fmt.Errorf("audio: fmt chunk too small: %d bytes", size)
			}
			if size > maxFmtChunkBytes {
				return Sample{}, fmt.Errorf("%w: fmt chunk declares %d bytes", ErrChunkTooLarge, size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return Sample{}, fmt.Errorf("audio: read fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			if format != wavFormatPCM {
				return Sample{}, fmt.Errorf("audio: unsupported wav format tag %d (only PCM)", format)
			}
			sample.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sample.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			sample.BitDepth = int(binary.LittleEndian.Uint16(body[14:16]))
			sawFmt = true

		case "data":
			if !sawFmt {
				return Sample{}, errors.New("audio: data chunk before fmt chunk")
			}
			if size > maxDataChunkBytes {
				return Sample{}, fmt.Errorf("%w: data chunk declares %d bytes", ErrChunkTooLarge, size)
			}
			// Grow from the bytes actually present rather than trusting the
			// declared size, so a truncated stream costs only what it ships.
			var payload bytes.Buffer
			n, err := io.Copy(&payload, io.LimitReader(r, int64(size)))
			if err != nil {
				return Sample{}, fmt.Errorf("audio: read data chunk: %w", err)
			}
			if n != int64(size) {
				return Sample{}, fmt.Errorf("audio: read data chunk: %w", io.ErrUnexpectedEOF)
			}
			sample.PCM = payload.Bytes()
			sawData = true

		default:
			// Skip unknown chunks (LIST, fact, cue, ...). Chunks are padded
			// to even sizes per the RIFF spec.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return Sample{}, fmt.Errorf("audio: skip %q chunk: %w", id, err)
			}
		}
	}

	if len(sample.PCM) == 0 {
		return Sample{}, errors.New("audio: wav data chunk is empty")
	}
	return sample, nil
}

// EncodeWAV serialises a [Sample] back into a minimal 44-byte-header PCM WAV
// stream. Used by adapters that ship audio to HTTP transcription services
// expecting a playable file.
func EncodeWAV(w io.Writer, s Sample) error {
	if len(s.PCM) == 0 {
		return errors.New("audio: cannot encode empty sample")
	}
	if s.SampleRate <= 0 || s.Channels <= 0 || s.BitDepth <= 0 {
		return fmt.Errorf("audio: cannot encode malformed format %dHz/%dch/%dbit",
			s.SampleRate, s.Channels, s.BitDepth)
	}

	blockAlign := s.Channels * s.BitDepth / 8
	byteRate := s.SampleRate * blockAlign
	dataSize := uint32(len(s.PCM))

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+dataSize)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(s.Channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(s.SampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(s.BitDepth))
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataSize)

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("audio: write wav header: %w", err)
	}
	if _, err := w.Write(s.PCM); err != nil {
		return fmt.Errorf("audio: write wav payload: %w", err)
	}
	return nil
}
