package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-audio/wav"
	"github.com/signbridge/signbridge-core/internal/config"
)

var (
	// ErrInvalidAudio is returned when the payload is not decodable at all.
	ErrInvalidAudio = errors.New("invalid audio payload")
	// ErrInvalidFormat is returned when the payload is not a WAV clip in the accepted layout.
	ErrInvalidFormat = errors.New("unsupported audio format")
)

// Clip is one recorded utterance.
type Clip struct {
	SessionID  string
	WAV        []byte
	SampleRate int
}

// TranscriptResult captures recognizer output.
type TranscriptResult struct {
	Text       string
	Confidence float64
}

// Recognizer abstracts STT backends.
type Recognizer interface {
	Recognize(ctx context.Context, clip Clip) (TranscriptResult, error)
	Close() error
}

// DecodeClip accepts raw base64 or a data URL.
func DecodeClip(sessionID, payload string, sampleRate int) (Clip, error) {
	payload = strings.TrimSpace(payload)
	if i := strings.Index(payload, ","); strings.HasPrefix(payload, "data:") && i >= 0 {
		payload = payload[i+1:]
	}
	if payload == "" {
		return Clip{}, fmt.Errorf("%w: empty payload", ErrInvalidAudio)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}
	return Clip{SessionID: sessionID, WAV: data, SampleRate: sampleRate}, nil
}

// ClipInfo is the header of a validated clip.
type ClipInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Inspect validates the WAV container.
func Inspect(data []byte) (ClipInfo, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return ClipInfo{}, ErrInvalidFormat
	}
	return ClipInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}, nil
}

// Format is the clip layout a recognizer accepts. Zero fields accept anything.
type Format struct {
	SampleRate int
	Channels   int
}

// FormatOf reads the accepted layout from config.
func FormatOf(cfg config.STTConfig) Format {
	return Format{SampleRate: cfg.SampleRate, Channels: cfg.Channels}
}

// Check validates the container and then its layout against f.
func (f Format) Check(data []byte) (ClipInfo, error) {
	info, err := Inspect(data)
	if err != nil {
		return ClipInfo{}, err
	}
	if f.SampleRate > 0 && info.SampleRate != f.SampleRate {
		return info, fmt.Errorf("%w: sample rate %d Hz, want %d Hz", ErrInvalidFormat, info.SampleRate, f.SampleRate)
	}
	if f.Channels > 0 && info.Channels != f.Channels {
		return info, fmt.Errorf("%w: %d channels, want %d", ErrInvalidFormat, info.Channels, f.Channels)
	}
	return info, nil
}

// New builds the recognizer selected by cfg.Mode.
func New(cfg config.STTConfig) (Recognizer, error) {
	switch cfg.Mode {
	case "", "mock":
		return NewMockRecognizer(FormatOf(cfg)), nil
	case "exec":
		return NewExecRecognizer(cfg)
	default:
		return nil, fmt.Errorf("unsupported stt mode %q", cfg.Mode)
	}
}
