package translation

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/signbridge/signbridge-core/internal/protocol"
	"github.com/signbridge/signbridge-core/internal/vocabulary"
)

const (
	scoreExact     = 0.9
	scoreSubstring = 0.6
	scoreSpelled   = 0.4

	// minPartialToken keeps short tokens like "a" from matching inside longer keywords.
	minPartialToken = 3

	// WholePhraseFallback describes a translation where nothing matched the vocabulary.
	WholePhraseFallback = "fingerspell the whole phrase"

	DefaultWindow = 3 * time.Second
)

// Fragment is the animation contribution of one input token.
type Fragment struct {
	Token     string                `json:"token"`
	Gestures  []string              `json:"gestures"`
	Keyframes []vocabulary.Keyframe `json:"keyframes,omitempty"`
	Score     float64               `json:"score"`
	Spelled   bool                  `json:"spelled"`
}

// SignSequence is the result of textToSign.
type SignSequence struct {
	Fragments   []Fragment `json:"fragments"`
	Description string     `json:"description"`
	Confidence  float64    `json:"confidence"`
}

type buffered struct {
	gesture    string
	confidence float64
	at         time.Time
}

// Engine converts between gestures and text. The sign buffer makes it stateful, so
// each session owns one for signToText; textToSign and lookups are stateless.
type Engine struct {
	vocab      *vocabulary.Vocabulary
	classifier Classifier
	window     time.Duration
	now        func() time.Time

	mu     sync.Mutex
	buffer []buffered
}

type Option func(*Engine)

func WithClassifier(c Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

func WithWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.window = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(vocab *vocabulary.Vocabulary, opts ...Option) *Engine {
	e := &Engine{
		vocab:      vocab,
		classifier: HeuristicClassifier{},
		window:     DefaultWindow,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SignToText classifies landmarks, buffers the candidate and phrases the most recent
// gesture still inside the window.
func (e *Engine) SignToText(obs protocol.GestureObservation) (protocol.TranslationResult, bool) {
	gesture, conf, ok := e.Recognize(obs)
	if !ok {
		return protocol.TranslationResult{}, false
	}
	phrase, ok := e.vocab.Phrase(gesture)
	if !ok {
		return protocol.TranslationResult{}, false
	}
	return protocol.TranslationResult{
		OriginalType:   protocol.ModalitySign,
		TranslatedText: phrase,
		Confidence:     conf,
		Timestamp:      e.now().UTC(),
		SessionID:      obs.SessionID,
	}, true
}

// Recognize is the labelling half of SignToText: it buffers the classified candidate
// and returns the most recent gesture inside the window, with the observation's
// confidence as a ceiling.
func (e *Engine) Recognize(obs protocol.GestureObservation) (string, float64, bool) {
	if len(obs.Landmarks) < vocabulary.HandPoints {
		return "", 0, false
	}
	gesture, conf, ok := e.classifier.Classify(obs.Landmarks)
	now := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()
	if ok {
		e.buffer = append(e.buffer, buffered{gesture: gesture, confidence: conf, at: now})
	}
	e.pruneLocked(now)
	if len(e.buffer) == 0 {
		return "", 0, false
	}
	latest := e.buffer[len(e.buffer)-1]
	return latest.gesture, clamp(min(latest.confidence, obs.Confidence)), true
}

// Classify labels landmarks without touching the buffer.
func (e *Engine) Classify(landmarks []protocol.Landmark) (string, float64, bool) {
	if len(landmarks) < vocabulary.HandPoints {
		return "", 0, false
	}
	return e.classifier.Classify(landmarks)
}

// Buffered reports the gestures still inside the window, oldest first.
func (e *Engine) Buffered() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pruneLocked(e.now())
	out := make([]string, 0, len(e.buffer))
	for _, b := range e.buffer {
		out = append(out, b.gesture)
	}
	return out
}

// Reset drops the buffer.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.buffer = nil
	e.mu.Unlock()
}

func (e *Engine) pruneLocked(now time.Time) {
	cutoff := now.Add(-e.window)
	i := 0
	for i < len(e.buffer) && e.buffer[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		e.buffer = append(e.buffer[:0], e.buffer[i:]...)
	}
}

// GestureToText phrases an already labelled gesture.
func (e *Engine) GestureToText(gesture string, confidence float64, sessionID string) (protocol.TranslationResult, bool) {
	phrase, ok := e.vocab.Phrase(gesture)
	if !ok {
		return protocol.TranslationResult{}, false
	}
	return protocol.TranslationResult{
		OriginalType:   protocol.ModalitySign,
		TranslatedText: phrase,
		Confidence:     clamp(confidence),
		Timestamp:      e.now().UTC(),
		SessionID:      sessionID,
	}, true
}

// TextToSign maps every whitespace token to a gesture, falling back to fingerspelling.
func (e *Engine) TextToSign(text string) (SignSequence, bool) {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return SignSequence{}, false
	}

	var (
		seq          SignSequence
		descriptions []string
		total        float64
		matched      bool
	)
	for _, raw := range tokens {
		token := strings.TrimFunc(raw, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
		})
		if token == "" {
			token = raw
		}
		frag, desc := e.tokenFragment(token)
		if !frag.Spelled {
			matched = true
		}
		seq.Fragments = append(seq.Fragments, frag)
		descriptions = append(descriptions, desc)
		total += frag.Score
	}

	seq.Confidence = clamp(total / float64(len(seq.Fragments)))
	if matched {
		seq.Description = strings.Join(descriptions, "; ")
	} else {
		seq.Description = WholePhraseFallback
	}
	return seq, true
}

func (e *Engine) tokenFragment(token string) (Fragment, string) {
	if gesture, ok := e.vocab.ExactKeyword(token); ok {
		return e.gestureFragment(token, gesture, scoreExact), e.vocab.Description(gesture)
	}
	if e.vocab.Has(token) {
		return e.gestureFragment(token, token, scoreExact), e.vocab.Description(token)
	}
	for _, kw := range e.vocab.Keywords() {
		if strings.Contains(token, kw.Phrase) || (len(token) >= minPartialToken && strings.Contains(kw.Phrase, token)) {
			return e.gestureFragment(token, kw.Gesture, scoreSubstring), e.vocab.Description(kw.Gesture)
		}
	}
	return e.spell(token), "fingerspell " + token
}

func (e *Engine) gestureFragment(token, gesture string, score float64) Fragment {
	frames, _ := e.vocab.Animation(gesture)
	return Fragment{Token: token, Gestures: []string{gesture}, Keyframes: frames, Score: score}
}

func (e *Engine) spell(token string) Fragment {
	frag := Fragment{Token: token, Score: scoreSpelled, Spelled: true}
	for _, r := range token {
		if r < 'a' || r > 'z' {
			continue
		}
		name := vocabulary.LetterGesture(r)
		frag.Gestures = append(frag.Gestures, name)
		if frames, ok := e.vocab.Animation(name); ok {
			frag.Keyframes = append(frag.Keyframes, frames...)
		}
	}
	return frag
}

// Description never fails.
func (e *Engine) Description(gesture string) string {
	return e.vocab.Description(gesture)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
