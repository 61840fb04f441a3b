package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/signbridge/signbridge-core/internal/avatar"
	"github.com/signbridge/signbridge-core/internal/translation"
)

// Stage categories that admit at most one in-flight call per session.
const (
	StageGesture = "gesture-processing"
	StageSpeech  = "speech-processing"
)

// Emitter delivers one named event to the client behind a connection.
type Emitter interface {
	Emit(event string, payload any) error
}

// Session is the per-connection state.
type Session struct {
	ID           string
	ConnectionID string
	Emitter      Emitter
	Engine       *translation.Engine
	CreatedAt    time.Time

	mu           sync.Mutex
	busy         map[string]bool
	lastActivity time.Time
	appearance   avatar.Appearance
}

func New(connectionID string, emitter Emitter, engine *translation.Engine) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.NewString(),
		ConnectionID: connectionID,
		Emitter:      emitter,
		Engine:       engine,
		CreatedAt:    now,
		busy:         map[string]bool{StageGesture: false, StageSpeech: false},
		lastActivity: now,
		appearance:   avatar.DefaultAppearance(),
	}
}

// TryAcquire sets the stage flag. When it was already set ok is false and the caller
// must drop its event. release is idempotent.
func (s *Session) TryAcquire(stage string) (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[stage] {
		return nil, false
	}
	s.busy[stage] = true
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.busy[stage] = false
			s.mu.Unlock()
		})
	}, true
}

// Busy returns a copy of the stage flags.
func (s *Session) Busy() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.busy))
	for k, v := range s.busy {
		out[k] = v
	}
	return out
}

func (s *Session) clearFlags() {
	s.mu.Lock()
	for k := range s.busy {
		s.busy[k] = false
	}
	s.mu.Unlock()
}

// Touch records user-driven activity.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now().UTC()
	s.mu.Unlock()
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) Appearance() avatar.Appearance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appearance
}

func (s *Session) SetAppearance(a avatar.Appearance) {
	s.mu.Lock()
	s.appearance = a
	s.mu.Unlock()
}
