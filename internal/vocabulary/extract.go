package vocabulary

import (
	"regexp"
	"strings"
)

type numberWord struct {
	word    string
	digit   string
	gesture string
}

// numberWords is scanned in ascending order.
var numberWords = []numberWord{
	{"zero", "0", "zero"},
	{"one", "1", "one"},
	{"two", "2", "two"},
	{"three", "3", "three"},
	{"four", "4", "four"},
	{"five", "5", "five"},
	{"six", "6", "six"},
	{"seven", "7", "seven"},
	{"eight", "8", "eight"},
	{"nine", "9", "nine"},
	{"ten", "10", "ten"},
}

var letterPhrase = regexp.MustCompile(`\bletter\s+([a-z])\b`)

// LetterGesture names the fingerspelling gesture for a single letter.
func LetterGesture(r rune) string {
	return "letter_" + string(r)
}

// ExtractGesture finds the gesture best matching free text. A miss is the common case
// for conversational speech and is not an error.
func (v *Vocabulary) ExtractGesture(text string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return "", false
	}

	for _, kw := range v.keywords {
		if strings.Contains(lower, kw.Phrase) {
			return kw.Gesture, true
		}
	}

	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	for _, n := range numberWords {
		if _, ok := v.gestures[n.gesture]; !ok {
			continue
		}
		if strings.Contains(lower, n.word) || containsToken(tokens, n.digit) {
			return n.gesture, true
		}
	}

	if len(lower) == 1 && lower[0] >= 'a' && lower[0] <= 'z' {
		if name := LetterGesture(rune(lower[0])); v.Has(name) {
			return name, true
		}
	}
	if m := letterPhrase.FindStringSubmatch(lower); m != nil {
		if name := LetterGesture(rune(m[1][0])); v.Has(name) {
			return name, true
		}
	}
	return "", false
}

// Has reports whether name is a vocabulary gesture.
func (v *Vocabulary) Has(name string) bool {
	_, ok := v.gestures[name]
	return ok
}

func containsToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
