package protocol

import (
	"encoding/json"
	"time"
)

// Inbound event names.
const (
	EventVideoFrame         = "video-frame"
	EventAudioData          = "audio-data"
	EventPlayGesture        = "play-gesture"
	EventSpeakText          = "speak-text"
	EventRequestTranslation = "request-translation"
	EventCustomizeAvatar    = "customize-avatar"
)

// Outbound event names.
const (
	EventSystemReady       = "system-ready"
	EventSignDetected      = "sign-detected"
	EventAvatarPoseUpdate  = "avatar-pose-update"
	EventTextRecognized    = "text-recognized"
	EventTranslationResult = "translation-result"
	EventAutoVoicePlayed   = "auto-voice-played"
	EventGesturePlayed     = "gesture-played"
	EventSpeechGenerated   = "speech-generated"
	EventAvatarGesture     = "avatar-gesture"
	EventSignDescription   = "sign-description"
	EventAvatarCustomized  = "avatar-customized"
	EventHealthCheck       = "health-check"
	EventError             = "error"
)

// Bus subjects for the translation record.
const (
	SubjectSessionOpened     = "signbridge.session.opened"
	SubjectSessionClosed     = "signbridge.session.closed"
	SubjectTranslationPrefix = "signbridge.translation"
	SubjectRecordAll         = "signbridge.>"
)

// UnknownGesture is the label a recognizer reports when it saw a hand but could not name it.
const UnknownGesture = "unknown"

// Modality tags the input side of a translation.
type Modality string

const (
	ModalitySign  Modality = "sign"
	ModalityVoice Modality = "voice"
)

// Envelope is the transport framing for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Landmark is one normalized hand keypoint.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GestureObservation is the output of a gesture recognizer for one frame.
type GestureObservation struct {
	Landmarks  []Landmark `json:"landmarks"`
	Gesture    string     `json:"gesture,omitempty"`
	Confidence float64    `json:"confidence"`
	Timestamp  time.Time  `json:"timestamp"`
	SessionID  string     `json:"sessionId"`
}

// SpeechObservation is the output of a speech recognizer for one clip.
type SpeechObservation struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	SessionID  string    `json:"sessionId"`
}

// TranslationResult is emitted after every cross-modal conversion.
type TranslationResult struct {
	OriginalType   Modality  `json:"originalType"`
	TranslatedText string    `json:"translatedText"`
	Confidence     float64   `json:"confidence"`
	Timestamp      time.Time `json:"timestamp"`
	SessionID      string    `json:"sessionId"`
}

// VideoFrame is the video-frame payload.
type VideoFrame struct {
	Frame     string `json:"frame"`
	Timestamp int64  `json:"timestamp"`
	SessionID string `json:"sessionId"`
}

// AudioData is the audio-data payload.
type AudioData struct {
	Audio      string  `json:"audio"`
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sampleRate"`
	Timestamp  int64   `json:"timestamp"`
	SessionID  string  `json:"sessionId"`
}

type PlayGesture struct {
	Gesture string `json:"gesture"`
}

type SpeakText struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty"`
}

type RequestTranslation struct {
	Text       string   `json:"text"`
	TargetType Modality `json:"targetType"`
}

type CustomizeAvatar struct {
	Settings json.RawMessage `json:"settings"`
}

type GestureInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Gender   string `json:"gender,omitempty"`
}

type SystemReady struct {
	Gestures  []GestureInfo `json:"gestures"`
	Voices    []Voice       `json:"voices"`
	SessionID string        `json:"sessionId"`
	Timestamp time.Time     `json:"timestamp"`
}

type HealthCheck struct {
	SessionID      string          `json:"sessionId"`
	ActiveSessions int             `json:"activeSessions"`
	Busy           map[string]bool `json:"busy"`
	Timestamp      time.Time       `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// SessionRecord is published on session open and close.
type SessionRecord struct {
	SessionID    string    `json:"sessionId"`
	ConnectionID string    `json:"connectionId"`
	Timestamp    time.Time `json:"timestamp"`
}
