package tts

import (
	"context"
	"errors"
	"fmt"

	"github.com/signbridge/signbridge-core/internal/config"
	"github.com/signbridge/signbridge-core/internal/protocol"
)

// ErrEmptyText is returned for blank synthesis requests.
var ErrEmptyText = errors.New("text is empty")

// SynthRequest contains parameters to synthesize speech.
type SynthRequest struct {
	SessionID string
	Text      string
	Voice     string
	Speed     float64
	Language  string
}

// SynthChunk contains PCM data.
type SynthChunk struct {
	SessionID  string
	Sequence   int
	SampleRate int
	Channels   int
	PCM        []byte
	Final      bool
}

// Synthesizer is the contract for producing audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthRequest) (<-chan SynthChunk, <-chan error)
	Close() error
}

// New builds the synthesizer selected by cfg.Mode.
func New(cfg config.TTSConfig) (Synthesizer, error) {
	switch cfg.Mode {
	case "", "mock":
		return NewMockSynth(cfg.SampleRate, cfg.Channels), nil
	case "exec":
		return NewExecSynth(cfg.Command, cfg.SampleRate, cfg.Channels)
	default:
		return nil, fmt.Errorf("unsupported tts mode %q", cfg.Mode)
	}
}

// Voices lists the configured voice profiles.
func Voices(cfg config.TTSConfig) []protocol.Voice {
	out := make([]protocol.Voice, 0, len(cfg.Voices))
	for _, v := range cfg.Voices {
		out = append(out, protocol.Voice{ID: v.ID, Name: v.Name, Language: v.Language, Gender: v.Gender})
	}
	return out
}

// LookupVoice resolves a voice id, falling back to fallback and then the first profile.
func LookupVoice(cfg config.TTSConfig, id, fallback string) (config.VoiceConfig, bool) {
	for _, want := range []string{id, fallback} {
		if want == "" {
			continue
		}
		for _, v := range cfg.Voices {
			if v.ID == want {
				return v, true
			}
		}
	}
	if len(cfg.Voices) > 0 {
		return cfg.Voices[0], false
	}
	return config.VoiceConfig{}, false
}
