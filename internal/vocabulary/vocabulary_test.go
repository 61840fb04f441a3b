package vocabulary

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `gestures:
  - name: hello
    category: greetings
    description: Open palm wave
    phrase: Hello
    confidence: 0.9
    animation:
      - handshape: open
        location: forehead
  - name: one
    category: numbers
    description: Index finger raised
    phrase: One
    confidence: 0.9
keywords:
  - phrase: Hello
    gesture: hello
`

func TestLoadValidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	v, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v.Len() != 2 {
		t.Fatalf("expected 2 gestures, got %d", v.Len())
	}
	if g, ok := v.ExactKeyword("hello"); !ok || g != "hello" {
		t.Fatalf("expected keyword phrase lower-cased, got %q %v", g, ok)
	}
	if g, ok := v.ExactKeyword("1"); !ok || g != "one" {
		t.Fatalf("expected digit keyword for one, got %q %v", g, ok)
	}
	if _, ok := v.ExactKeyword("two"); ok {
		t.Fatal("number words without a gesture must not resolve")
	}
}

func TestValidateRejectsDanglingKeyword(t *testing.T) {
	doc := Document{
		Gestures: []Gesture{{Name: "hello", Description: "wave", Confidence: 0.9}},
		Keywords: []Keyword{{Phrase: "thanks", Gesture: "thank_you"}},
	}
	if err := Validate(doc); err == nil {
		t.Fatal("expected error for keyword referencing missing gesture")
	}
}

func TestValidateRejectsDuplicates(t *testing.T) {
	doc := Document{Gestures: []Gesture{
		{Name: "hello", Description: "wave"},
		{Name: "hello", Description: "wave again"},
	}}
	if err := Validate(doc); err == nil {
		t.Fatal("expected duplicate error")
	}
}

func TestValidateRejectsConfidenceRange(t *testing.T) {
	doc := Document{Gestures: []Gesture{{Name: "hello", Description: "wave", Confidence: 1.2}}}
	if err := Validate(doc); err == nil {
		t.Fatal("expected confidence range error")
	}
}

func TestBuiltinIsConsistent(t *testing.T) {
	if err := Validate(Builtin()); err != nil {
		t.Fatalf("builtin vocabulary invalid: %v", err)
	}
}

func TestDescriptionIsTotal(t *testing.T) {
	v := Default()
	for _, g := range v.Gestures() {
		if v.Description(g.Name) == "" {
			t.Fatalf("empty description for %s", g.Name)
		}
	}
	for _, name := range []string{"", "flying_saucer", "HELLO"} {
		if got := v.Description(name); got != UnknownDescription {
			t.Fatalf("Description(%q) = %q, want %q", name, got, UnknownDescription)
		}
	}
}

func TestPhraseAndAnimationLookups(t *testing.T) {
	v := Default()
	if p, ok := v.Phrase("thank_you"); !ok || p != "Thank you" {
		t.Fatalf("unexpected phrase %q %v", p, ok)
	}
	if _, ok := v.Phrase("nope"); ok {
		t.Fatal("expected miss for unknown gesture")
	}
	if frames, ok := v.Animation("hello"); !ok || len(frames) == 0 {
		t.Fatal("expected hello animation")
	}
	if _, ok := v.Animation("missing"); ok {
		t.Fatal("expected miss for unknown animation")
	}
}

func TestExtractGesture(t *testing.T) {
	v := Default()
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{"thank you so much", "thank_you", true},
		{"Hello there", "hello", true},
		{"good morning everyone", "good_morning", true},
		{"I need some water please", "please", true},
		{"where is the bathroom", "bathroom", true},
		{"I don't understand", "dont_understand", true},
		{"I have 3 cats", "three", true},
		{"seven", "seven", true},
		{"10", "ten", true},
		// digits count only as whole tokens
		{"room 3b", "", false},
		{"gate 12", "", false},
		{"b", "letter_b", true},
		{"show me the letter q", "letter_q", true},
		{"xyzzy", "", false},
		{"", "", false},
		{"   ", "", false},
	}
	for _, tc := range cases {
		got, ok := v.ExtractGesture(tc.text)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ExtractGesture(%q) = %q, %v; want %q, %v", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractPrefersEarlierCategory(t *testing.T) {
	v := Default()
	// greetings precede courtesy
	if got, _ := v.ExtractGesture("thanks and goodbye"); got != "goodbye" {
		t.Fatalf("expected greeting to win, got %q", got)
	}
}
