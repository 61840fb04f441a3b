package stt

import (
	"context"
	"hash/fnv"
)

var mockPhrases = []string{
	"hello how are you",
	"thank you so much",
	"I need help",
	"where is the bathroom",
	"nice to meet you",
	"see you tomorrow",
	"I don't understand",
	"can you repeat that",
}

type mockRecognizer struct {
	format Format
}

// NewMockRecognizer returns a recognizer that picks a canned phrase from a hash of the clip.
func NewMockRecognizer(format Format) Recognizer {
	return &mockRecognizer{format: format}
}

func (m *mockRecognizer) Recognize(ctx context.Context, clip Clip) (TranscriptResult, error) {
	if err := ctx.Err(); err != nil {
		return TranscriptResult{}, err
	}
	if _, err := m.format.Check(clip.WAV); err != nil {
		return TranscriptResult{}, err
	}
	h := fnv.New32a()
	_, _ = h.Write(clip.WAV)
	return TranscriptResult{
		Text:       mockPhrases[h.Sum32()%uint32(len(mockPhrases))],
		Confidence: 0.85,
	}, nil
}

func (m *mockRecognizer) Close() error { return nil }
