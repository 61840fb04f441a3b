package gesture

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/signbridge/signbridge-core/internal/config"
	"github.com/signbridge/signbridge-core/internal/protocol"
	"github.com/signbridge/signbridge-core/internal/vocabulary"
)

type mockRecognizer struct {
	rate          float64
	landmarksOnly bool
	names         []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockRecognizer simulates a detector: a fixed share of frames contain a hand,
// labelled with a random vocabulary gesture.
func NewMockRecognizer(cfg config.GestureConfig, vocab *vocabulary.Vocabulary) Recognizer {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	names := make([]string, 0, vocab.Len())
	for _, g := range vocab.Gestures() {
		names = append(names, g.Name)
	}
	return &mockRecognizer{
		rate:          cfg.DetectionRate,
		landmarksOnly: cfg.LandmarksOnly,
		names:         names,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

func (m *mockRecognizer) Recognize(ctx context.Context, frame Frame) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rng.Float64() >= m.rate {
		return Result{}, nil
	}
	res := Result{
		Detected:   true,
		Confidence: 0.6 + m.rng.Float64()*0.35,
		Landmarks:  make([]protocol.Landmark, vocabulary.HandPoints),
	}
	for i := range res.Landmarks {
		res.Landmarks[i] = protocol.Landmark{X: m.rng.Float64(), Y: m.rng.Float64(), Z: m.rng.Float64()*0.1 - 0.05}
	}
	if !m.landmarksOnly && len(m.names) > 0 {
		res.Gesture = m.names[m.rng.Intn(len(m.names))]
	}
	return res, nil
}

func (m *mockRecognizer) Close() error { return nil }
