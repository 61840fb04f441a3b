package gesture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/signbridge/signbridge-core/internal/config"
	"github.com/signbridge/signbridge-core/internal/protocol"
)

type execRecognizer struct {
	cmd []string
	mu  sync.Mutex
}

type execResult struct {
	Detected   bool                `json:"detected"`
	Gesture    string              `json:"gesture"`
	Confidence float64             `json:"confidence"`
	Landmarks  []protocol.Landmark `json:"landmarks"`
}

// NewExecRecognizer runs an external detector per frame. The image is written to stdin
// and a single JSON object is expected on stdout.
func NewExecRecognizer(cfg config.GestureConfig) (Recognizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse gesture command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("gesture command is empty")
	}
	return &execRecognizer{cmd: args}, nil
}

func (r *execRecognizer) Recognize(ctx context.Context, frame Frame) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	args := append([]string{}, r.cmd[1:]...)
	if frame.MimeType != "" {
		args = append(args, "--mime", frame.MimeType)
	}
	command := exec.CommandContext(ctx, r.cmd[0], args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdin = bytes.NewReader(frame.Image)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return Result{}, fmt.Errorf("gesture command failed: %w: %s", err, stderr.String())
	}

	var resp execResult
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return Result{}, fmt.Errorf("decode gesture response: %w", err)
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return Result{}, fmt.Errorf("gesture confidence %f out of range", resp.Confidence)
	}
	return Result{
		Detected:   resp.Detected || resp.Gesture != "" || len(resp.Landmarks) > 0,
		Gesture:    resp.Gesture,
		Confidence: resp.Confidence,
		Landmarks:  resp.Landmarks,
	}, nil
}

func (r *execRecognizer) Close() error { return nil }
