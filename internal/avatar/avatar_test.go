package avatar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/signbridge/signbridge-core/internal/protocol"
	"github.com/signbridge/signbridge-core/internal/vocabulary"
)

func newGenerator(keyframe time.Duration) *Generator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGenerator(vocabulary.Default(), keyframe, logger)
}

func TestGeneratePose(t *testing.T) {
	g := newGenerator(0)

	pose := g.GeneratePose(protocol.GestureObservation{Gesture: "hello"}, true)
	if pose.Kind != PoseGesture || pose.Gesture != "hello" || pose.Handshape == "" {
		t.Fatalf("expected vocabulary pose, got %+v", pose)
	}

	lm := make([]protocol.Landmark, vocabulary.HandPoints)
	pose = g.GeneratePose(protocol.GestureObservation{Gesture: protocol.UnknownGesture, Landmarks: lm}, false)
	if pose.Kind != PoseLandmark || len(pose.Landmarks) != vocabulary.HandPoints {
		t.Fatalf("expected landmark pose, got %+v", pose)
	}

	// a known label that was not recognized confidently follows the hand
	pose = g.GeneratePose(protocol.GestureObservation{Gesture: "hello", Landmarks: lm}, false)
	if pose.Kind != PoseLandmark {
		t.Fatalf("expected landmark pose for unrecognized observation, got %+v", pose)
	}
	pose = g.GeneratePose(protocol.GestureObservation{Gesture: "hello"}, false)
	if !reflect.DeepEqual(pose, NeutralPose()) {
		t.Fatalf("expected neutral pose without landmarks, got %+v", pose)
	}

	pose = g.GeneratePose(protocol.GestureObservation{}, true)
	if !reflect.DeepEqual(pose, NeutralPose()) {
		t.Fatalf("expected neutral pose, got %+v", pose)
	}
}

func TestGeneratePoseRecovers(t *testing.T) {
	g := &Generator{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	// nil vocabulary panics inside the lookup
	pose := g.GeneratePose(protocol.GestureObservation{Gesture: "hello"}, true)
	if pose.Kind != PoseNeutral {
		t.Fatalf("expected neutral pose after recovery, got %+v", pose)
	}
}

func TestPlaySequence(t *testing.T) {
	g := newGenerator(10 * time.Millisecond)

	start := time.Now()
	seq, ok := g.PlaySequence(context.Background(), "hello", 1)
	if !ok || seq.Gesture != "hello" || len(seq.Keyframes) == 0 {
		t.Fatalf("unexpected sequence %+v %v", seq, ok)
	}
	if elapsed := time.Since(start); elapsed < seq.Duration {
		t.Fatalf("playback returned early: %v < %v", elapsed, seq.Duration)
	}

	fast, _ := g.PlaySequence(context.Background(), "hello", 2)
	if fast.Duration >= seq.Duration {
		t.Fatalf("expected faster playback, got %v vs %v", fast.Duration, seq.Duration)
	}

	if _, ok := g.PlaySequence(context.Background(), "not_a_gesture", 1); ok {
		t.Fatal("expected unknown gesture to be a no-op")
	}
}

func TestPlaySequenceResolvesOnCancel(t *testing.T) {
	g := newGenerator(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := g.PlaySequence(ctx, "hello", 1); !ok {
		t.Fatal("expected sequence to resolve")
	}
}

func TestCustomize(t *testing.T) {
	base := DefaultAppearance()

	got, err := Customize(base, json.RawMessage(`{"skinTone":"dark","handSize":1.5}`))
	if err != nil {
		t.Fatalf("customize: %v", err)
	}
	if got.SkinTone != "dark" || got.HandSize != 1.5 || got.Outfit != base.Outfit {
		t.Fatalf("unexpected appearance %+v", got)
	}

	if _, err := Customize(base, json.RawMessage(`{"skinTone":"#a0b1c2"}`)); err != nil {
		t.Fatalf("expected hex colour accepted: %v", err)
	}

	bad := []string{
		``,
		`null`,
		`{"skinTone":"green"}`,
		`{"outfit":"pyjamas"}`,
		`{"handSize":5}`,
		`{"animationSpeed":0}`,
		`{"wings":true}`,
		`[1,2,3]`,
	}
	for _, raw := range bad {
		if _, err := Customize(base, json.RawMessage(raw)); !errors.Is(err, ErrInvalidAppearance) {
			t.Errorf("Customize(%s): expected ErrInvalidAppearance, got %v", raw, err)
		}
	}
}
