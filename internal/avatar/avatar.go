package avatar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/signbridge/signbridge-core/internal/protocol"
	"github.com/signbridge/signbridge-core/internal/vocabulary"
)

const (
	PoseNeutral  = "neutral"
	PoseLandmark = "landmark"
	PoseGesture  = "gesture"
)

// Pose is a renderer-agnostic description of the avatar's hand.
type Pose struct {
	Kind      string              `json:"kind"`
	Gesture   string              `json:"gesture,omitempty"`
	Handshape string              `json:"handshape"`
	Location  string              `json:"location"`
	Movement  string              `json:"movement,omitempty"`
	Landmarks []protocol.Landmark `json:"landmarks,omitempty"`
}

// Sequence is a played gesture animation.
type Sequence struct {
	Gesture   string                `json:"gesture"`
	Keyframes []vocabulary.Keyframe `json:"keyframes"`
	Duration  time.Duration         `json:"-"`
}

// Generator maps observations and gesture names to avatar motion.
type Generator struct {
	vocab    *vocabulary.Vocabulary
	keyframe time.Duration
	logger   *slog.Logger
}

func NewGenerator(vocab *vocabulary.Vocabulary, keyframe time.Duration, log *slog.Logger) *Generator {
	return &Generator{
		vocab:    vocab,
		keyframe: keyframe,
		logger:   log.With(slog.String("component", "avatar")),
	}
}

// NeutralPose is the rest position.
func NeutralPose() Pose {
	return Pose{Kind: PoseNeutral, Handshape: "relaxed", Location: "waist"}
}

// GeneratePose never fails; anything unexpected yields the neutral pose. Only a
// recognized observation is posed from the vocabulary; anything else follows the
// tracked landmarks.
func (g *Generator) GeneratePose(obs protocol.GestureObservation, recognized bool) (pose Pose) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("pose generation panicked", slog.String("panic", fmt.Sprint(r)))
			pose = NeutralPose()
		}
	}()

	if frames, ok := g.vocab.Animation(obs.Gesture); recognized && ok {
		first := frames[0]
		return Pose{
			Kind:      PoseGesture,
			Gesture:   obs.Gesture,
			Handshape: first.Handshape,
			Location:  first.Location,
			Movement:  first.Movement,
		}
	}
	if len(obs.Landmarks) >= vocabulary.HandPoints {
		return Pose{
			Kind:      PoseLandmark,
			Gesture:   obs.Gesture,
			Handshape: "tracked",
			Location:  "tracked",
			Landmarks: append([]protocol.Landmark(nil), obs.Landmarks...),
		}
	}
	return NeutralPose()
}

// PlaySequence walks the animation for name. It always resolves; an unknown name is a
// logged no-op and returns false. speed scales playback, values <= 0 mean 1.
func (g *Generator) PlaySequence(ctx context.Context, name string, speed float64) (Sequence, bool) {
	frames, ok := g.vocab.Animation(name)
	if !ok {
		g.logger.Warn("no animation for gesture", slog.String("gesture", name))
		return Sequence{}, false
	}
	if speed <= 0 {
		speed = 1
	}
	seq := Sequence{
		Gesture:   name,
		Keyframes: frames,
		Duration:  time.Duration(float64(g.keyframe) * float64(len(frames)) / speed),
	}
	if seq.Duration <= 0 {
		return seq, true
	}
	timer := time.NewTimer(seq.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		g.logger.Debug("sequence playback interrupted", slog.String("gesture", name))
	}
	return seq, true
}

func (g *Generator) Close() error { return nil }
