package coordinator

import (
	"time"

	"github.com/signbridge/signbridge-core/internal/avatar"
	"github.com/signbridge/signbridge-core/internal/translation"
	"github.com/signbridge/signbridge-core/internal/vocabulary"
)

// Outbound payloads that carry avatar or translation types. Plain payloads live in
// the protocol package.

type AvatarPoseUpdate struct {
	SessionID string      `json:"sessionId"`
	Pose      avatar.Pose `json:"pose"`
	Timestamp time.Time   `json:"timestamp"`
}

type AvatarGesture struct {
	SessionID   string                `json:"sessionId"`
	Gesture     string                `json:"gesture"`
	Description string                `json:"description"`
	Keyframes   []vocabulary.Keyframe `json:"keyframes,omitempty"`
	Timestamp   time.Time             `json:"timestamp"`
}

type GesturePlayed struct {
	SessionID  string    `json:"sessionId"`
	Gesture    string    `json:"gesture"`
	DurationMS int64     `json:"durationMs"`
	Timestamp  time.Time `json:"timestamp"`
}

type SignDescription struct {
	SessionID   string                 `json:"sessionId"`
	Text        string                 `json:"text"`
	Description string                 `json:"description"`
	Gestures    []string               `json:"gestures"`
	Fragments   []translation.Fragment `json:"fragments"`
	Confidence  float64                `json:"confidence"`
	Timestamp   time.Time              `json:"timestamp"`
}

// SpeechAudio is the payload of speech-generated and auto-voice-played.
type SpeechAudio struct {
	SessionID  string    `json:"sessionId"`
	Text       string    `json:"text"`
	Voice      string    `json:"voice"`
	Speed      float64   `json:"speed"`
	Audio      string    `json:"audio"`
	MimeType   string    `json:"mimeType"`
	SampleRate int       `json:"sampleRate"`
	Timestamp  time.Time `json:"timestamp"`
}

type AvatarCustomized struct {
	SessionID  string            `json:"sessionId"`
	Appearance avatar.Appearance `json:"appearance"`
	Timestamp  time.Time         `json:"timestamp"`
}
