package stt

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/signbridge/signbridge-core/internal/config"
)

func makeWAV(t *testing.T, samples int) []byte {
	t.Helper()
	return makeWAVWith(t, samples, 16000, 1)
}

func makeWAVWith(t *testing.T, samples, sampleRate, channels int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	buf := &audio.IntBuffer{Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate}, Data: make([]int, samples*channels)}
	for i := range buf.Data {
		buf.Data[i] = (i % 64) * 100
	}
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestDecodeClip(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("RIFF"))
	clip, err := DecodeClip("s1", payload, 16000)
	if err != nil {
		t.Fatal(err)
	}
	if string(clip.WAV) != "RIFF" || clip.SampleRate != 16000 {
		t.Fatalf("unexpected clip %+v", clip)
	}
	if _, err := DecodeClip("s1", "data:audio/wav;base64,"+payload, 0); err != nil {
		t.Fatalf("data url: %v", err)
	}
	for _, bad := range []string{"", "%%%"} {
		if _, err := DecodeClip("s1", bad, 0); !errors.Is(err, ErrInvalidAudio) {
			t.Errorf("DecodeClip(%q): expected ErrInvalidAudio, got %v", bad, err)
		}
	}
}

func TestInspect(t *testing.T) {
	info, err := Inspect(makeWAV(t, 1600))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 || info.BitDepth != 16 {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := Inspect([]byte("definitely not audio")); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestMockRecognizer(t *testing.T) {
	r := NewMockRecognizer(Format{SampleRate: 16000, Channels: 1})
	wavData := makeWAV(t, 800)

	first, err := r.Recognize(context.Background(), Clip{WAV: wavData})
	if err != nil {
		t.Fatal(err)
	}
	if first.Text == "" || first.Confidence != 0.85 {
		t.Fatalf("unexpected transcript %+v", first)
	}
	second, _ := r.Recognize(context.Background(), Clip{WAV: wavData})
	if second.Text != first.Text {
		t.Fatal("mock must be deterministic for the same clip")
	}

	if _, err := r.Recognize(context.Background(), Clip{WAV: []byte("garbage")}); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestFormatCheck(t *testing.T) {
	format := FormatOf(config.Default().STT)
	if _, err := format.Check(makeWAV(t, 160)); err != nil {
		t.Fatalf("16 kHz mono should pass: %v", err)
	}
	cases := map[string][]byte{
		"sample rate": makeWAVWith(t, 160, 44100, 1),
		"channels":    makeWAVWith(t, 160, 16000, 2),
		"container":   []byte("not a wav"),
	}
	for name, data := range cases {
		if _, err := format.Check(data); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("%s: expected ErrInvalidFormat, got %v", name, err)
		}
	}
	if _, err := (Format{}).Check(makeWAVWith(t, 160, 44100, 2)); err != nil {
		t.Fatalf("zero format accepts any layout: %v", err)
	}
}

func TestMockRecognizerUsesConfiguredFormat(t *testing.T) {
	r, err := New(config.STTConfig{Mode: "mock", SampleRate: 8000, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Recognize(context.Background(), Clip{WAV: makeWAV(t, 160)}); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("16 kHz clip must be rejected by an 8 kHz recognizer, got %v", err)
	}
	if _, err := r.Recognize(context.Background(), Clip{WAV: makeWAVWith(t, 160, 8000, 1)}); err != nil {
		t.Fatalf("matching clip: %v", err)
	}
}

func TestExecRecognizerRejectsBadAudioBeforeRunning(t *testing.T) {
	r, err := NewExecRecognizer(config.STTConfig{Command: "/nonexistent/stt-binary"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Recognize(context.Background(), Clip{WAV: []byte("nope")}); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(config.STTConfig{Mode: "cloud"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := New(config.STTConfig{Mode: "exec", Command: "   "}); err == nil {
		t.Fatal("expected error for empty command")
	}
	if _, err := New(config.STTConfig{Mode: "mock"}); err != nil {
		t.Fatal(err)
	}
}
