package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/username/debtfolio/src/logger"
	"github.com/username/debtfolio/src/quote"
	"github.com/username/debtfolio/src/remotestore"
	"github.com/username/debtfolio/src/services"
)

// Manager hands out independent sessions to the HTTP layer, keyed by uuid,
// and expires the ones nobody has touched for longer than the TTL.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	engine *quote.Engine
	store  remotestore.Client
	refs   services.ReferenceService

	ttl                 time.Duration
	defaultInstallments int
	maxInstallments     int
}

func NewManager(engine *quote.Engine, store remotestore.Client, refs services.ReferenceService, ttl time.Duration, defaultInstallments, maxInstallments int) *Manager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Manager{
		sessions:            make(map[string]*Session),
		engine:              engine,
		store:               store,
		refs:                refs,
		ttl:                 ttl,
		defaultInstallments: defaultInstallments,
		maxInstallments:     maxInstallments,
	}
}

// Create starts a fresh session and registers it.
func (m *Manager) Create() *Session {
	session := NewSession(uuid.NewString(), m.engine, m.store, m.refs, m.defaultInstallments, m.maxInstallments)
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session
}

// Get looks a session up by id, refreshing its idle timer.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		session.Touch()
	}
	return session, ok
}

// Remove drops a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, session := range m.sessions {
		if session.LastUsed().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until stop is closed.
func (m *Manager) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := m.Sweep(); removed > 0 && logger.L != nil {
					logger.L.Debug("Swept idle sessions", "removed", removed)
				}
			case <-stop:
				return
			}
		}
	}()
}
