package avatar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// ErrInvalidAppearance wraps every customization validation failure.
var ErrInvalidAppearance = errors.New("invalid avatar settings")

var (
	skinTones = []string{"light", "medium-light", "medium", "medium-dark", "dark"}
	outfits   = []string{"casual", "formal", "medical", "uniform"}
	hexColor  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// Appearance is the per-session avatar look.
type Appearance struct {
	SkinTone       string  `json:"skinTone"`
	Outfit         string  `json:"outfit"`
	HandSize       float64 `json:"handSize"`
	AnimationSpeed float64 `json:"animationSpeed"`
}

func DefaultAppearance() Appearance {
	return Appearance{SkinTone: "medium", Outfit: "casual", HandSize: 1, AnimationSpeed: 1}
}

// Customize applies settings on top of current. Unknown fields are rejected.
func Customize(current Appearance, settings json.RawMessage) (Appearance, error) {
	if len(bytes.TrimSpace(settings)) == 0 || bytes.Equal(bytes.TrimSpace(settings), []byte("null")) {
		return Appearance{}, fmt.Errorf("%w: settings are required", ErrInvalidAppearance)
	}
	next := current
	dec := json.NewDecoder(bytes.NewReader(settings))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		return Appearance{}, fmt.Errorf("%w: %v", ErrInvalidAppearance, err)
	}
	if !slices.Contains(skinTones, next.SkinTone) && !hexColor.MatchString(next.SkinTone) {
		return Appearance{}, fmt.Errorf("%w: skinTone %q", ErrInvalidAppearance, next.SkinTone)
	}
	if !slices.Contains(outfits, next.Outfit) {
		return Appearance{}, fmt.Errorf("%w: outfit %q", ErrInvalidAppearance, next.Outfit)
	}
	if next.HandSize < 0.5 || next.HandSize > 2 {
		return Appearance{}, fmt.Errorf("%w: handSize must be within [0.5,2]", ErrInvalidAppearance)
	}
	if next.AnimationSpeed < 0.25 || next.AnimationSpeed > 3 {
		return Appearance{}, fmt.Errorf("%w: animationSpeed must be within [0.25,3]", ErrInvalidAppearance)
	}
	return next, nil
}
