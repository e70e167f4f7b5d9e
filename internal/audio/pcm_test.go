package audio

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func TestDecode_TruncatesPartialFrame(t *testing.T) {
	// 5 bytes at mono/16-bit is 2 whole frames plus a trailing byte.
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	buf, err := Decode(data, SampleRate, 1)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got := buf.Frames(); got != 2 {
		t.Errorf("Frames = %d, want 2", got)
	}
	if got := len(buf.PCM()); got != 4 {
		t.Errorf("PCM length = %d, want 4 (trailing byte dropped)", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		sampleRate int
		channels   int
		want       error
	}{
		{"empty data", nil, SampleRate, 1, ErrEmptyData},
		{"zero channels", []byte{1, 2}, SampleRate, 0, ErrInvalidChannels},
		{"negative channels", []byte{1, 2}, SampleRate, -1, ErrInvalidChannels},
		{"zero sample rate", []byte{1, 2}, 0, 1, ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, tt.sampleRate, tt.channels)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecode_SampleScaling(t *testing.T) {
	// int16 little-endian: 32767, -32768, 0.
	data := []byte{0xFF, 0x7F, 0x00, 0x80, 0x00, 0x00}

	buf, err := Decode(data, SampleRate, 1)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	tests := []struct {
		frame int
		want  float64
	}{
		{0, 32767.0 / 32768.0},
		{1, -1.0},
		{2, 0.0},
	}
	for _, tt := range tests {
		if got := buf.Sample(tt.frame, 0); got != tt.want {
			t.Errorf("Sample(%d, 0) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

func TestDecode_StereoFrameCount(t *testing.T) {
	// 10 bytes at stereo/16-bit: frame size 4, so 2 frames, 2 bytes dropped.
	data := make([]byte, 10)

	buf, err := Decode(data, SampleRate, 2)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := buf.Frames(); got != 2 {
		t.Errorf("Frames = %d, want 2", got)
	}
}

func TestBuffer_Duration(t *testing.T) {
	// 24000 frames at 24kHz is exactly one second.
	data := make([]byte, 24000*2)

	buf, err := Decode(data, SampleRate, 1)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := buf.Duration(); got != time.Second {
		t.Errorf("Duration = %v, want 1s", got)
	}
}

func TestDecodeBase64_PlainPayload(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03, 0x04}
	encoded := base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeBase64(encoded)
	if err != nil {
		t.Fatalf("DecodeBase64 failed: %v", err)
	}
	if string(got) != string(raw) {
		t.Errorf("decoded payload mismatch: got %v, want %v", got, raw)
	}
}

func TestDecodeBase64_StripsPrefixAndWhitespace(t *testing.T) {
	raw := []byte{0xAA, 0xBB, 0xCC}
	encoded := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name  string
		input string
	}{
		{"data uri prefix", "data:audio/pcm;base64," + encoded},
		{"embedded newlines", encoded[:2] + "\n" + encoded[2:]},
		{"embedded spaces", encoded[:2] + "  " + encoded[2:]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64(tt.input)
			if err != nil {
				t.Fatalf("DecodeBase64 failed: %v", err)
			}
			if string(got) != string(raw) {
				t.Errorf("decoded payload mismatch: got %v, want %v", got, raw)
			}
		})
	}
}

func TestDecodeBase64_Invalid(t *testing.T) {
	if _, err := DecodeBase64("not base64!!!"); err == nil {
		t.Error("expected error for invalid base64 input")
	}
}
