package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/pkg/playback"
	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

// storageResolver adapts the document store to the playback engine's
// Resolver. Link targets are stored as screen id strings; a malformed id
// resolves to nothing, which the engine reports as a broken link.
type storageResolver struct {
	storage storage.Storage
}

func (r *storageResolver) ScreenByID(ctx context.Context, id string) (*story.Screen, error) {
	screenID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	return r.storage.GetScreen(ctx, screenID)
}

func (r *storageResolver) RepliesByScreenID(ctx context.Context, id uuid.UUID) ([]story.Reply, error) {
	return r.storage.ListRepliesByScreen(ctx, id)
}

// SessionManager holds live playtest sessions in memory. Sessions are
// scratch state for the author and are never persisted; an idle session
// past its TTL is swept away.
type SessionManager struct {
	storage storage.Storage
	logger  *slog.Logger
	ttl     time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionEntry
}

type sessionEntry struct {
	session    *playback.Session
	lastAccess time.Time
}

func NewSessionManager(st storage.Storage, logger *slog.Logger, ttl time.Duration) *SessionManager {
	return &SessionManager{
		storage:  st,
		logger:   logger,
		ttl:      ttl,
		sessions: make(map[uuid.UUID]*sessionEntry),
	}
}

// CreateSession builds a session seeded with the project's currency
// definitions, in the pre-test seeding phase.
func (m *SessionManager) CreateSession(ctx context.Context, projectID uuid.UUID) (*playback.Session, error) {
	project, err := m.storage.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("project %s not found", projectID)}
	}

	currencies, err := m.storage.ListCurrenciesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	session := playback.NewSession(&storageResolver{storage: m.storage}, currencies)

	m.mu.Lock()
	m.sessions[session.ID] = &sessionEntry{session: session, lastAccess: time.Now()}
	m.mu.Unlock()

	m.logger.Debug("Playtest session created", "session_id", session.ID, "project_id", projectID)
	return session, nil
}

// Session returns a live session by id, refreshing its idle timer.
func (m *SessionManager) Session(id uuid.UUID) (*playback.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	entry.lastAccess = time.Now()
	return entry.session, true
}

// EndSession discards a session.
func (m *SessionManager) EndSession(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count reports the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep discards sessions idle past the TTL and returns how many went.
func (m *SessionManager) Sweep() int {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	swept := 0
	for id, entry := range m.sessions {
		if entry.lastAccess.Before(cutoff) {
			delete(m.sessions, id)
			swept++
		}
	}
	if swept > 0 {
		m.logger.Debug("Swept idle playtest sessions", "count", swept)
	}
	return swept
}

// Run sweeps on an interval until the context is canceled.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
