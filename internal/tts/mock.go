package tts

import (
	"context"
	"encoding/binary"
	"math"
	"strings"
	"time"
)

const (
	mockLatency    = 20 * time.Millisecond
	mockCharLength = 60 * time.Millisecond
	mockChunk      = 200 * time.Millisecond
)

type mockSynth struct {
	sampleRate int
	channels   int
}

// NewMockSynth produces a quiet tone whose length follows the text length and speed.
func NewMockSynth(sampleRate, channels int) Synthesizer {
	if sampleRate <= 0 {
		sampleRate = 22050
	}
	if channels <= 0 {
		channels = 1
	}
	return &mockSynth{sampleRate: sampleRate, channels: channels}
}

func (m *mockSynth) Synthesize(ctx context.Context, req SynthRequest) (<-chan SynthChunk, <-chan error) {
	chunks := make(chan SynthChunk, 1)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		if strings.TrimSpace(req.Text) == "" {
			errs <- ErrEmptyText
			return
		}
		select {
		case <-ctx.Done():
			errs <- ctx.Err()
			return
		case <-time.After(mockLatency):
		}

		pcm := m.tone(req)
		step := int(float64(m.sampleRate)*mockChunk.Seconds()) * m.channels * 2
		sequence := 0
		for off := 0; off < len(pcm); off += step {
			end := min(off+step, len(pcm))
			chunk := SynthChunk{
				SessionID:  req.SessionID,
				Sequence:   sequence,
				SampleRate: m.sampleRate,
				Channels:   m.channels,
				PCM:        pcm[off:end],
				Final:      end == len(pcm),
			}
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
			sequence++
		}
	}()
	return chunks, errs
}

func (m *mockSynth) tone(req SynthRequest) []byte {
	speed := req.Speed
	if speed <= 0 {
		speed = 1
	}
	length := time.Duration(float64(len([]rune(req.Text))) * float64(mockCharLength) / speed)
	frames := int(float64(m.sampleRate) * length.Seconds())
	pcm := make([]byte, frames*m.channels*2)
	for i := 0; i < frames; i++ {
		v := int16(2000 * math.Sin(2*math.Pi*220*float64(i)/float64(m.sampleRate)))
		for c := 0; c < m.channels; c++ {
			binary.LittleEndian.PutUint16(pcm[(i*m.channels+c)*2:], uint16(v))
		}
	}
	return pcm
}

func (m *mockSynth) Close() error { return nil }
