// internal/session/manager.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Reflectix/CounselLab/internal/errors"
	"github.com/Reflectix/CounselLab/internal/services"
	"github.com/Reflectix/CounselLab/internal/utils"
)

// Manager owns the live practice sessions. Sessions are created per
// user and scenario, looked up by id, and reaped after a period of
// inactivity so abandoned browser tabs do not pin device bookkeeping
// forever.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration

	scenarios *services.ScenarioService
	responses *services.ResponseService
	progress  *services.ProgressService
	media     *services.MediaService
	logger    *utils.Logger
}

// NewManager creates a session manager.
func NewManager(ttl time.Duration, scenarios *services.ScenarioService,
	responses *services.ResponseService, progress *services.ProgressService,
	media *services.MediaService) *Manager {

	return &Manager{
		sessions:  make(map[string]*Session),
		ttl:       ttl,
		scenarios: scenarios,
		responses: responses,
		progress:  progress,
		media:     media,
		logger:    utils.GetLogger(),
	}
}

// Create starts a new practice session for a user on a scenario. The
// scenario's segments are loaded sorted by start time and the user's
// progress record is marked started.
func (m *Manager) Create(userID, scenarioID string) (*Session, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required", nil)
	}

	scenario, err := m.scenarios.GetScenario(scenarioID)
	if err != nil {
		return nil, err
	}
	segments, err := m.scenarios.ListSegments(scenarioID)
	if err != nil {
		return nil, err
	}

	if err := m.progress.MarkStarted(userID, scenarioID); err != nil {
		// Progress tracking failing should not block practice.
		m.logger.Warnf("failed to mark scenario %s started for %s: %v", scenarioID, userID, err)
	}

	s := newSession(uuid.New().String(), userID, scenario, segments,
		m.responses, m.progress, m.media)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("practice session created", map[string]interface{}{
		"session_id":  s.ID,
		"user_id":     userID,
		"scenario_id": scenarioID,
		"segments":    len(segments),
	})
	return s, nil
}

// Get looks up a live session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return nil, apperrors.NewNotFoundError("session not found: "+id, nil)
	}
	return s, nil
}

// Close tears down one session and removes it from the manager.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return apperrors.NewNotFoundError("session not found: "+id, nil)
	}
	s.Close()
	return nil
}

// CloseAll tears down every live session, used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StartJanitor reaps idle sessions until the context is cancelled.
func (m *Manager) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.reapExpired()
			}
		}
	}()
}

func (m *Manager) reapExpired() {
	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.Expired(m.ttl) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		m.logger.Info("expired session reaped", map[string]interface{}{
			"session_id": s.ID,
			"user_id":    s.UserID,
		})
	}
}
