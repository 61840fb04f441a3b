package gesture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/signbridge/signbridge-core/internal/config"
	"github.com/signbridge/signbridge-core/internal/protocol"
	"github.com/signbridge/signbridge-core/internal/vocabulary"
)

// ErrInvalidFrame is returned when a frame payload cannot be decoded.
var ErrInvalidFrame = errors.New("invalid frame")

// Frame is one decoded video image.
type Frame struct {
	SessionID string
	Image     []byte
	MimeType  string
}

// Result is what a recognizer saw. Gesture is empty when only landmarks were produced.
type Result struct {
	Detected   bool
	Gesture    string
	Confidence float64
	Landmarks  []protocol.Landmark
}

// Recognizer abstracts gesture backends.
type Recognizer interface {
	Recognize(ctx context.Context, frame Frame) (Result, error)
	Close() error
}

// DecodeFrame accepts raw base64 or a data URL.
func DecodeFrame(sessionID, payload string) (Frame, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Frame{}, fmt.Errorf("%w: empty payload", ErrInvalidFrame)
	}
	mime := "image/jpeg"
	if strings.HasPrefix(payload, "data:") {
		header, body, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return Frame{}, fmt.Errorf("%w: malformed data url", ErrInvalidFrame)
		}
		mime = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		payload = body
	}
	img, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if len(img) == 0 {
		return Frame{}, fmt.Errorf("%w: empty image", ErrInvalidFrame)
	}
	return Frame{SessionID: sessionID, Image: img, MimeType: mime}, nil
}

// New builds the recognizer selected by cfg.Mode.
func New(cfg config.GestureConfig, vocab *vocabulary.Vocabulary) (Recognizer, error) {
	switch cfg.Mode {
	case "", "mock":
		return NewMockRecognizer(cfg, vocab), nil
	case "exec":
		return NewExecRecognizer(cfg)
	default:
		return nil, fmt.Errorf("unsupported gesture mode %q", cfg.Mode)
	}
}
