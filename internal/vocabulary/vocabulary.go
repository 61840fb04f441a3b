package vocabulary

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// HandPoints is the number of landmarks a recognizer reports per detected hand.
const HandPoints = 21

// UnknownDescription is returned for names missing from the vocabulary.
const UnknownDescription = "Unknown gesture"

// Keyframe is one pose of a gesture animation.
type Keyframe struct {
	Handshape   string `yaml:"handshape" json:"handshape"`
	Location    string `yaml:"location" json:"location"`
	Movement    string `yaml:"movement,omitempty" json:"movement,omitempty"`
	Orientation string `yaml:"orientation,omitempty" json:"orientation,omitempty"`
}

// Gesture is a vocabulary entry.
type Gesture struct {
	Name        string     `yaml:"name"`
	Category    string     `yaml:"category"`
	Description string     `yaml:"description"`
	Phrase      string     `yaml:"phrase"`
	Confidence  float64    `yaml:"confidence"`
	Animation   []Keyframe `yaml:"animation,omitempty"`
}

// Keyword maps a lower-case word or phrase to a gesture name.
type Keyword struct {
	Phrase  string `yaml:"phrase"`
	Gesture string `yaml:"gesture"`
}

// Document is the on-disk vocabulary format.
type Document struct {
	Gestures []Gesture `yaml:"gestures"`
	Keywords []Keyword `yaml:"keywords"`
}

// Vocabulary is read-only after construction and safe for concurrent use.
type Vocabulary struct {
	gestures map[string]Gesture
	order    []string
	keywords []Keyword
	exact    map[string]string
}

// New indexes a document. Keyword order is preserved; it decides extraction tie-breaks.
func New(doc Document) (*Vocabulary, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	v := &Vocabulary{
		gestures: make(map[string]Gesture, len(doc.Gestures)),
		order:    make([]string, 0, len(doc.Gestures)),
		exact:    make(map[string]string),
	}
	for _, g := range doc.Gestures {
		v.gestures[g.Name] = g
		v.order = append(v.order, g.Name)
	}
	for _, kw := range doc.Keywords {
		kw.Phrase = strings.ToLower(strings.TrimSpace(kw.Phrase))
		v.keywords = append(v.keywords, kw)
		if _, seen := v.exact[kw.Phrase]; !seen {
			v.exact[kw.Phrase] = kw.Gesture
		}
	}
	for _, n := range numberWords {
		if _, ok := v.gestures[n.gesture]; !ok {
			continue
		}
		for _, key := range []string{n.word, n.digit} {
			if _, seen := v.exact[key]; !seen {
				v.exact[key] = n.gesture
			}
		}
	}
	return v, nil
}

// Load reads a vocabulary document from disk.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	return New(doc)
}

// Validate ensures every keyword resolves and every entry is usable.
func Validate(doc Document) error {
	if len(doc.Gestures) == 0 {
		return errors.New("gestures must not be empty")
	}
	names := make(map[string]struct{}, len(doc.Gestures))
	for i, g := range doc.Gestures {
		if g.Name == "" {
			return fmt.Errorf("gestures[%d].name is required", i)
		}
		if _, dup := names[g.Name]; dup {
			return fmt.Errorf("duplicate gesture %q", g.Name)
		}
		if strings.TrimSpace(g.Description) == "" {
			return fmt.Errorf("gesture %q: description is required", g.Name)
		}
		if g.Confidence < 0 || g.Confidence > 1 {
			return fmt.Errorf("gesture %q: confidence must be within [0,1]", g.Name)
		}
		names[g.Name] = struct{}{}
	}
	for i, kw := range doc.Keywords {
		if strings.TrimSpace(kw.Phrase) == "" {
			return fmt.Errorf("keywords[%d].phrase is required", i)
		}
		if _, ok := names[kw.Gesture]; !ok {
			return fmt.Errorf("keyword %q references unknown gesture %q", kw.Phrase, kw.Gesture)
		}
	}
	return nil
}

// Lookup returns the entry for name.
func (v *Vocabulary) Lookup(name string) (Gesture, bool) {
	g, ok := v.gestures[name]
	return g, ok
}

// Description never fails; unknown names get UnknownDescription.
func (v *Vocabulary) Description(name string) string {
	if g, ok := v.gestures[name]; ok && g.Description != "" {
		return g.Description
	}
	return UnknownDescription
}

// Phrase returns the spoken phrase for a gesture, if it has one.
func (v *Vocabulary) Phrase(name string) (string, bool) {
	g, ok := v.gestures[name]
	if !ok || g.Phrase == "" {
		return "", false
	}
	return g.Phrase, true
}

// Animation returns the keyframes for a gesture, if any.
func (v *Vocabulary) Animation(name string) ([]Keyframe, bool) {
	g, ok := v.gestures[name]
	if !ok || len(g.Animation) == 0 {
		return nil, false
	}
	return g.Animation, true
}

// Gestures lists entries in declaration order.
func (v *Vocabulary) Gestures() []Gesture {
	out := make([]Gesture, 0, len(v.order))
	for _, name := range v.order {
		out = append(out, v.gestures[name])
	}
	return out
}

// Keywords returns the ordered keyword list.
func (v *Vocabulary) Keywords() []Keyword {
	return append([]Keyword(nil), v.keywords...)
}

// ExactKeyword matches a whole token against keywords and number words.
func (v *Vocabulary) ExactKeyword(token string) (string, bool) {
	g, ok := v.exact[token]
	return g, ok
}

// Len reports the number of gestures.
func (v *Vocabulary) Len() int { return len(v.order) }
