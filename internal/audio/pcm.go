package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"time"
)

// Decode errors.
var (
	// ErrEmptyData is returned when the PCM byte sequence is empty.
	ErrEmptyData = errors.New("empty PCM data")

	// ErrInvalidChannels is returned for a non-positive channel count.
	ErrInvalidChannels = errors.New("channel count must be positive")

	// ErrInvalidSampleRate is returned for a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)

// bytesPerSample is fixed: all payloads are 16-bit signed samples.
const bytesPerSample = 2

// Buffer is a decoded, playable block of interleaved 16-bit
// little-endian signed PCM. The raw data is trimmed to whole frames at
// decode time; a Buffer is immutable once created.
type Buffer struct {
	data       []byte
	sampleRate int
	channels   int
}

// Decode turns a byte sequence of interleaved 16-bit little-endian
// signed PCM samples into a playable Buffer.
//
// The input length need not be a multiple of 2*channels; a trailing
// partial frame is silently dropped, so the frame count is always
// floor(len(data) / (2*channels)). Decode has no side effects.
func Decode(data []byte, sampleRate, channels int) (*Buffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	frameSize := bytesPerSample * channels
	frames := len(data) / frameSize

	trimmed := make([]byte, frames*frameSize)
	copy(trimmed, data)

	return &Buffer{
		data:       trimmed,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// DecodeBase64 decodes a base64 speech payload into raw PCM bytes.
// Data-URI prefixes (data:audio/...;base64,) and embedded whitespace
// are stripped before decoding, since some generators wrap payloads
// that way.
func DecodeBase64(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	return base64.StdEncoding.DecodeString(s)
}

// PCM returns the raw sample data, trimmed to whole frames.
func (b *Buffer) PCM() []byte { return b.data }

// SampleRate returns the buffer's sample rate in Hz.
func (b *Buffer) SampleRate() int { return b.sampleRate }

// Channels returns the buffer's channel count.
func (b *Buffer) Channels() int { return b.channels }

// Frames returns the number of complete frames in the buffer.
func (b *Buffer) Frames() int {
	return len(b.data) / (bytesPerSample * b.channels)
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.sampleRate)
}

// Sample returns the sample at the given frame and channel, scaled from
// the signed 16-bit integer domain to [-1.0, 1.0) by dividing by 32768.
func (b *Buffer) Sample(frame, channel int) float64 {
	off := (frame*b.channels + channel) * bytesPerSample
	v := int16(binary.LittleEndian.Uint16(b.data[off : off+2]))
	return float64(v) / 32768.0
}
