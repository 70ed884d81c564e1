package brief

import (
	"encoding/json"
	"sync"

	"briefcraft/internal/generation"
)

// Session owns the in-memory pipeline state of one brief: the document
// itself plus the model settings every generation call for that brief
// uses. All access goes through Update, which holds the session lock,
// so concurrent stage runs against the same brief cannot interleave
// their apply-and-persist steps. Distinct briefs have distinct sessions
// and run fully in parallel.
type Session struct {
	id       string
	settings generation.Settings

	mu    sync.Mutex
	brief *Brief
}

// ID returns the brief id the session serializes on.
func (s *Session) ID() string { return s.id }

// Settings returns the model settings used for this session's calls.
func (s *Session) Settings() generation.Settings { return s.settings }

// Update runs fn with exclusive access to the session's brief.
func (s *Session) Update(fn func(*Brief) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.brief)
}

// Snapshot returns an independent deep copy of the brief, safe to read
// while other goroutines keep updating the session.
func (s *Session) Snapshot() (*Brief, error) {
	s.mu.Lock()
	doc, err := json.Marshal(s.brief)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out Brief
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SessionManager hands out sessions keyed by brief id, one session per
// id for the manager's lifetime.
type SessionManager struct {
	settings generation.Settings

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager whose sessions all carry the
// given model settings.
func NewSessionManager(settings generation.Settings) *SessionManager {
	return &SessionManager{
		settings: settings,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for b, creating one on first use. When a
// session for the id already exists it keeps its own brief; the passed
// document only seeds a new session.
func (m *SessionManager) Session(b *Brief) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[b.ID]; ok {
		return s
	}
	s := &Session{id: b.ID, settings: m.settings, brief: b}
	m.sessions[b.ID] = s
	return s
}

// Release drops the session for id. The next Session call for that id
// starts fresh from whatever brief the caller passes.
func (m *SessionManager) Release(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
