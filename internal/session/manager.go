package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"medibot-afrika/internal/consultation"
	"medibot-afrika/internal/platform/logging"
	"medibot-afrika/internal/viewstate"
)

var ErrNotFound = errors.New("session not found")

const DefaultMaxSessions = 1000

// Session is one open copy of the app: its views and its intake form.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	View   *viewstate.Controller
	Engine *consultation.Engine
}

// Submit runs a consultation in the session's language and, on success,
// moves the session to the diagnosis view.
func (s *Session) Submit(ctx context.Context, in consultation.FormInput) (*consultation.Outcome, error) {
	out, err := s.Engine.Submit(ctx, in, s.View.Language())
	if err != nil {
		return nil, err
	}
	s.View.CompleteConsultation(out.Record)
	return out, nil
}

// EngineFactory builds the consultation engine for a new session.
type EngineFactory func() *consultation.Engine

// Manager keeps the live sessions in memory. When full, the oldest session is
// dropped to make room.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*Session
	order       []uuid.UUID
	maxSessions int
	newEngine   EngineFactory
	now         func() time.Time
}

func NewManager(newEngine EngineFactory, maxSessions int) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Manager{
		sessions:    make(map[uuid.UUID]*Session),
		maxSessions: maxSessions,
		newEngine:   newEngine,
		now:         time.Now,
	}
}

func (m *Manager) Create(ctx context.Context) *Session {
	s := &Session{
		ID:        uuid.New(),
		CreatedAt: m.now(),
		View:      viewstate.New(),
		Engine:    m.newEngine(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.order) >= m.maxSessions {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.sessions, oldest)
		logging.FromContext(ctx).Info("evicted session", "session_id", oldest)
	}
	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)

	logging.FromContext(ctx).Info("session created", "session_id", s.ID)
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sid]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
