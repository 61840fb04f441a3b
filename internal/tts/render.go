package tts

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Audio is a fully rendered utterance.
type Audio struct {
	WAV        []byte
	SampleRate int
	Channels   int
	Samples    int
}

// Render drains a synthesis stream into a WAV container.
func Render(ctx context.Context, synth Synthesizer, req SynthRequest) (Audio, error) {
	chunks, errs := synth.Synthesize(ctx, req)
	var (
		pcm        []byte
		sampleRate int
		channels   int
	)
	for chunks != nil || errs != nil {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			sampleRate, channels = chunk.SampleRate, chunk.Channels
			pcm = append(pcm, chunk.PCM...)
		case err, ok := <-errs:
			if ok && err != nil {
				return Audio{}, err
			}
			errs = nil
		case <-ctx.Done():
			return Audio{}, ctx.Err()
		}
	}
	if sampleRate == 0 || channels == 0 {
		return Audio{}, errors.New("synthesizer produced no audio")
	}
	return encodeWAV(pcm, sampleRate, channels)
}

func encodeWAV(pcm []byte, sampleRate, channels int) (Audio, error) {
	if len(pcm)%2 != 0 {
		return Audio{}, fmt.Errorf("pcm payload not aligned")
	}
	buffer := &audio.IntBuffer{Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate}}
	buffer.Data = make([]int, len(pcm)/2)
	for i := range buffer.Data {
		buffer.Data[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	file, err := os.CreateTemp("", "signbridge_tts_*.wav")
	if err != nil {
		return Audio{}, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	enc := wav.NewEncoder(file, sampleRate, 16, channels, 1)
	if err := enc.Write(buffer); err != nil {
		return Audio{}, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return Audio{}, fmt.Errorf("close wav encoder: %w", err)
	}
	data, err := os.ReadFile(file.Name())
	if err != nil {
		return Audio{}, fmt.Errorf("read wav: %w", err)
	}
	return Audio{WAV: data, SampleRate: sampleRate, Channels: channels, Samples: len(buffer.Data)}, nil
}
