package session

import "sync"

// Registry maps connection ids to live sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Insert registers s, replacing any session on the same connection.
func (r *Registry) Insert(s *Session) {
	r.mu.Lock()
	r.sessions[s.ConnectionID] = s
	r.mu.Unlock()
}

// Remove deregisters and returns the session for connectionID.
func (r *Registry) Remove(connectionID string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[connectionID]
	delete(r.sessions, connectionID)
	r.mu.Unlock()
	if ok {
		s.clearFlags()
	}
	return s, ok
}

func (r *Registry) Get(connectionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connectionID]
	return s, ok
}

// Contains reports whether s itself (not just its connection id) is still registered.
func (r *Registry) Contains(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[s.ConnectionID] == s
}

// Snapshot returns the live sessions at one instant.
func (r *Registry) Snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Clear removes every session and returns them.
func (r *Registry) Clear() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		out = append(out, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	for _, s := range out {
		s.clearFlags()
	}
	return out
}
