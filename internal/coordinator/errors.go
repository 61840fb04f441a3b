package coordinator

import (
	"errors"
	"fmt"
)

// Error codes reported to clients, one per event type and failure site.
const (
	CodeFrameInvalid             = "FRAME_INVALID"
	CodeGestureRecognitionFailed = "GESTURE_RECOGNITION_FAILED"
	CodeGestureTimeout           = "GESTURE_TIMEOUT"
	CodeGestureVoiceFailed       = "GESTURE_VOICE_FAILED"
	CodeAudioInvalid             = "AUDIO_INVALID"
	CodeAudioInvalidFormat       = "AUDIO_INVALID_FORMAT"
	CodeSpeechRecognitionFailed  = "SPEECH_RECOGNITION_FAILED"
	CodeSpeechTimeout            = "SPEECH_TIMEOUT"
	CodeSpeechGestureFailed      = "SPEECH_GESTURE_FAILED"
	CodePlayGestureInvalid       = "PLAY_GESTURE_INVALID"
	CodePlayGestureFailed        = "PLAY_GESTURE_FAILED"
	CodeSpeakTextInvalid         = "SPEAK_TEXT_INVALID"
	CodeSpeakTextFailed          = "SPEAK_TEXT_FAILED"
	CodeTranslationInvalid       = "TRANSLATION_INVALID"
	CodeTranslationFailed        = "TRANSLATION_FAILED"
	CodeAvatarCustomizeInvalid   = "AVATAR_CUSTOMIZE_INVALID"
	CodeEventUnsupported         = "EVENT_UNSUPPORTED"
)

var (
	// ErrClosed is returned by Connect after Close.
	ErrClosed = errors.New("coordinator closed")

	errStageTimeout = errors.New("stage timed out")
)

// dispatchError is the single failure a dispatch reports to its connection.
type dispatchError struct {
	code       string
	message    string
	cause      error
	validation bool
}

func (e *dispatchError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *dispatchError) Unwrap() error { return e.cause }

func invalid(code, message string, cause error) *dispatchError {
	return &dispatchError{code: code, message: message, cause: cause, validation: true}
}

func failed(code, message string, cause error) *dispatchError {
	return &dispatchError{code: code, message: message, cause: cause}
}
