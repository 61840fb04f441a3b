package translation

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/signbridge/signbridge-core/internal/protocol"
	"github.com/signbridge/signbridge-core/internal/vocabulary"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// hand builds 21 landmarks with the wrist at y=0.5 and the given fingertips raised.
func hand(raised ...int) []protocol.Landmark {
	lm := make([]protocol.Landmark, vocabulary.HandPoints)
	for i := range lm {
		lm[i] = protocol.Landmark{X: 0.5, Y: 0.8}
	}
	lm[wrist].Y = 0.5
	for _, tip := range raised {
		lm[tip].Y = 0.2
	}
	return lm
}

func TestHeuristicClassifier(t *testing.T) {
	cases := []struct {
		name   string
		raised []int
		want   string
		ok     bool
	}{
		{"open hand", []int{thumbTip, indexTip, middleTip, ringTip, pinkyTip}, "hello", true},
		{"index", []int{indexTip}, "one", true},
		{"victory", []int{indexTip, middleTip}, "two", true},
		{"three", []int{indexTip, middleTip, ringTip}, "three", true},
		{"four", []int{indexTip, middleTip, ringTip, pinkyTip}, "four", true},
		{"ily", []int{thumbTip, indexTip, pinkyTip}, "love", true},
		{"fist", nil, "yes", true},
		{"thumb only", []int{thumbTip}, "", false},
	}
	var c HeuristicClassifier
	for _, tc := range cases {
		got, conf, ok := c.Classify(hand(tc.raised...))
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: got %q %v, want %q %v", tc.name, got, ok, tc.want, tc.ok)
		}
		if ok && (conf <= 0 || conf > 1) {
			t.Errorf("%s: confidence out of range %f", tc.name, conf)
		}
	}
}

func TestSignToTextRequiresFullHand(t *testing.T) {
	e := NewEngine(vocabulary.Default())
	obs := protocol.GestureObservation{Landmarks: hand()[:20], Confidence: 0.9}
	if _, ok := e.SignToText(obs); ok {
		t.Fatal("expected no result for a partial hand")
	}
	if _, ok := e.SignToText(protocol.GestureObservation{Confidence: 0.9}); ok {
		t.Fatal("expected no result without landmarks")
	}
}

func TestSignToTextUsesMinimumConfidence(t *testing.T) {
	e := NewEngine(vocabulary.Default())
	obs := protocol.GestureObservation{Landmarks: hand(indexTip), Confidence: 0.5, SessionID: "s1"}
	res, ok := e.SignToText(obs)
	if !ok {
		t.Fatal("expected result")
	}
	if res.TranslatedText != "One" || res.OriginalType != protocol.ModalitySign {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Confidence != 0.5 {
		t.Fatalf("confidence must not exceed observation, got %f", res.Confidence)
	}
	if res.SessionID != "s1" {
		t.Fatalf("session id not propagated: %q", res.SessionID)
	}

	obs.Confidence = 0.99
	res, _ = e.SignToText(obs)
	if res.Confidence != 0.8 {
		t.Fatalf("expected classifier confidence 0.8, got %f", res.Confidence)
	}
}

func TestSignBufferWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	e := NewEngine(vocabulary.Default(), WithClock(clock.now), WithWindow(3*time.Second))

	e.SignToText(protocol.GestureObservation{Landmarks: hand(indexTip), Confidence: 1})
	clock.advance(time.Second)
	e.SignToText(protocol.GestureObservation{Landmarks: hand(indexTip, middleTip), Confidence: 1})
	if got := e.Buffered(); len(got) != 2 {
		t.Fatalf("expected 2 buffered, got %v", got)
	}

	clock.advance(2500 * time.Millisecond)
	if got := e.Buffered(); len(got) != 1 || got[0] != "two" {
		t.Fatalf("expected oldest pruned, got %v", got)
	}

	// an unclassifiable hand reads the most recent buffered gesture
	res, ok := e.SignToText(protocol.GestureObservation{Landmarks: hand(thumbTip), Confidence: 1})
	if !ok || res.TranslatedText != "Two" {
		t.Fatalf("expected buffered Two, got %+v %v", res, ok)
	}

	clock.advance(5 * time.Second)
	if _, ok := e.SignToText(protocol.GestureObservation{Landmarks: hand(thumbTip), Confidence: 1}); ok {
		t.Fatal("expected stale buffer to be pruned")
	}
}

func TestGestureToText(t *testing.T) {
	e := NewEngine(vocabulary.Default())
	res, ok := e.GestureToText("thank_you", 0.8, "s1")
	if !ok || res.TranslatedText != "Thank you" || res.Confidence != 0.8 {
		t.Fatalf("unexpected %+v %v", res, ok)
	}
	if _, ok := e.GestureToText("unknown", 0.9, "s1"); ok {
		t.Fatal("expected no phrase for unknown")
	}
}

func TestTextToSign(t *testing.T) {
	e := NewEngine(vocabulary.Default())

	res, ok := e.TextToSign("hello")
	if !ok {
		t.Fatal("expected result for hello")
	}
	if res.Confidence < 0.9 {
		t.Fatalf("expected confidence >= 0.9, got %f", res.Confidence)
	}
	if len(res.Fragments) == 0 || len(res.Fragments[0].Keyframes) == 0 {
		t.Fatal("expected a non-empty animation")
	}

	res, ok = e.TextToSign("xyzzyqq")
	if !ok {
		t.Fatal("fallback must still produce a result")
	}
	if math.Abs(res.Confidence-0.4) > 1e-9 {
		t.Fatalf("expected 0.4, got %f", res.Confidence)
	}
	if res.Description != WholePhraseFallback {
		t.Fatalf("unexpected description %q", res.Description)
	}
	if !res.Fragments[0].Spelled || len(res.Fragments[0].Gestures) != 7 {
		t.Fatalf("expected one letter per character, got %+v", res.Fragments[0])
	}

	for _, empty := range []string{"", "   ", "\t\n"} {
		if _, ok := e.TextToSign(empty); ok {
			t.Fatalf("expected no result for %q", empty)
		}
	}
}

func TestTextToSignScoring(t *testing.T) {
	e := NewEngine(vocabulary.Default())

	res, _ := e.TextToSign("Hello helpful qqq")
	want := (0.9 + 0.6 + 0.4) / 3
	if math.Abs(res.Confidence-want) > 1e-9 {
		t.Fatalf("expected mean %f, got %f", want, res.Confidence)
	}
	if res.Fragments[1].Gestures[0] != "help" {
		t.Fatalf("expected substring match on help, got %v", res.Fragments[1].Gestures)
	}
	if res.Description == WholePhraseFallback || !strings.Contains(res.Description, "; ") {
		t.Fatalf("expected joined description, got %q", res.Description)
	}

	res, _ = e.TextToSign("thanks!")
	if res.Fragments[0].Score != 0.9 || res.Fragments[0].Gestures[0] != "thank_you" {
		t.Fatalf("expected punctuation trimmed exact match, got %+v", res.Fragments[0])
	}

	res, _ = e.TextToSign("3")
	if res.Fragments[0].Gestures[0] != "three" {
		t.Fatalf("expected digit keyword, got %+v", res.Fragments[0])
	}
}

func TestTextToSignShortTokens(t *testing.T) {
	e := NewEngine(vocabulary.Default())
	cases := []struct {
		token   string
		spelled bool
		want    []string
	}{
		// inside "hello" and "help" but too short to match part of a keyword
		{"he", true, []string{"letter_h", "letter_e"}},
		{"hel", false, []string{"hello"}},
	}
	for _, tc := range cases {
		res, ok := e.TextToSign(tc.token)
		if !ok || len(res.Fragments) != 1 {
			t.Fatalf("%q: unexpected result %+v", tc.token, res)
		}
		frag := res.Fragments[0]
		if frag.Spelled != tc.spelled || strings.Join(frag.Gestures, ",") != strings.Join(tc.want, ",") {
			t.Errorf("%q: got spelled=%v gestures=%v, want spelled=%v gestures=%v",
				tc.token, frag.Spelled, frag.Gestures, tc.spelled, tc.want)
		}
	}
}

func TestDescriptionFallback(t *testing.T) {
	e := NewEngine(vocabulary.Default())
	if got := e.Description("nope_not_here"); got != vocabulary.UnknownDescription {
		t.Fatalf("got %q", got)
	}
}
