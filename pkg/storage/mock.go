package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/pkg/story"
)

// MockStorage is an in-memory Storage for tests: mutex-guarded maps with
// optional error injection.
type MockStorage struct {
	mu         sync.RWMutex
	projects   map[uuid.UUID]*story.Project
	chapters   map[uuid.UUID]*story.Chapter
	screens    map[uuid.UUID]*story.Screen
	replies    map[uuid.UUID]*story.Reply
	currencies map[uuid.UUID]*story.Currency
	references map[uuid.UUID]*story.Reference
	settings   map[uuid.UUID]*story.Setting
	pingError  error
	failAll    error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates an empty mock store.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		projects:   make(map[uuid.UUID]*story.Project),
		chapters:   make(map[uuid.UUID]*story.Chapter),
		screens:    make(map[uuid.UUID]*story.Screen),
		replies:    make(map[uuid.UUID]*story.Reply),
		currencies: make(map[uuid.UUID]*story.Currency),
		references: make(map[uuid.UUID]*story.Reference),
		settings:   make(map[uuid.UUID]*story.Setting),
	}
}

// SetPingError configures the mock to fail health checks.
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetError makes every subsequent operation fail with err; pass nil to
// restore normal behavior.
func (m *MockStorage) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error { return nil }

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// Projects

func (m *MockStorage) CreateProject(ctx context.Context, p *story.Project) error {
	if p == nil {
		return errors.New("project cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	ensureID(&p.ID)
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *MockStorage) GetProject(ctx context.Context, id uuid.UUID) (*story.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MockStorage) ListProjectsByUser(ctx context.Context, userID string) ([]story.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []story.Project
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MockStorage) UpdateProject(ctx context.Context, p *story.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *MockStorage) DeleteProject(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	delete(m.projects, id)
	return nil
}

// Chapters

func (m *MockStorage) CreateChapter(ctx context.Context, c *story.Chapter) error {
	if c == nil {
		return errors.New("chapter cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	ensureID(&c.ID)
	cp := *c
	m.chapters[c.ID] = &cp
	return nil
}

func (m *MockStorage) GetChapter(ctx context.Context, id uuid.UUID) (*story.Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	c, ok := m.chapters[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *MockStorage) ListChaptersByProject(ctx context.Context, projectID uuid.UUID) ([]story.Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []story.Chapter
	for _, c := range m.chapters {
		if c.ProjectID == projectID {
			out = append(out, *c)
		}
	}
	story.SortChapters(out)
	return out, nil
}

func (m *MockStorage) UpdateChapter(ctx context.Context, c *story.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	cp := *c
	m.chapters[c.ID] = &cp
	return nil
}

func (m *MockStorage) DeleteChapter(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	delete(m.chapters, id)
	return nil
}

// Screens

func (m *MockStorage) CreateScreen(ctx context.Context, s *story.Screen) error {
	if s == nil {
		return errors.New("screen cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	ensureID(&s.ID)
	cp := *s
	m.screens[s.ID] = &cp
	return nil
}

func (m *MockStorage) GetScreen(ctx context.Context, id uuid.UUID) (*story.Screen, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	s, ok := m.screens[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MockStorage) ListScreensByChapter(ctx context.Context, chapterID uuid.UUID) ([]story.Screen, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []story.Screen
	for _, s := range m.screens {
		if s.ChapterID == chapterID {
			out = append(out, *s)
		}
	}
	story.SortScreens(out)
	return out, nil
}

func (m *MockStorage) ListScreensByProject(ctx context.Context, projectID uuid.UUID) ([]story.Screen, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []story.Screen
	for _, s := range m.screens {
		if s.ProjectID == projectID {
			out = append(out, *s)
		}
	}
	story.SortScreens(out)
	return out, nil
}

func (m *MockStorage) UpdateScreen(ctx context.Context, s *story.Screen) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	cp := *s
	m.screens[s.ID] = &cp
	return nil
}

func (m *MockStorage) DeleteScreen(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	delete(m.screens, id)
	return nil
}

// Replies

func (m *MockStorage) CreateReply(ctx context.Context, r *story.Reply) error {
	if r == nil {
		return errors.New("reply cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	ensureID(&r.ID)
	cp := *r
	m.replies[r.ID] = &cp
	return nil
}

func (m *MockStorage) GetReply(ctx context.Context, id uuid.UUID) (*story.Reply, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	r, ok := m.replies[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MockStorage) ListRepliesByScreen(ctx context.Context, screenID uuid.UUID) ([]story.Reply, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []story.Reply
	for _, r := range m.replies {
		if r.ScreenID == screenID {
			out = append(out, *r)
		}
	}
	story.SortReplies(out)
	return out, nil
}

func (m *MockStorage) UpdateReply(ctx context.Context, r *story.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	cp := *r
	m.replies[r.ID] = &cp
	return nil
}

func (m *MockStorage) DeleteReply(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	delete(m.replies, id)
	return nil
}

// Currencies

func (m *MockStorage) CreateCurrency(ctx context.Context, c *story.Currency) error {
	if c == nil {
		return errors.New("currency cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	ensureID(&c.ID)
	cp := *c
	m.currencies[c.ID] = &cp
	return nil
}

func (m *MockStorage) GetCurrency(ctx context.Context, id uuid.UUID) (*story.Currency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	c, ok := m.currencies[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *MockStorage) ListCurrenciesByProject(ctx context.Context, projectID uuid.UUID) ([]story.Currency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []story.Currency
	for _, c := range m.currencies {
		if c.ProjectID == projectID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *MockStorage) UpdateCurrency(ctx context.Context, c *story.Currency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	cp := *c
	m.currencies[c.ID] = &cp
	return nil
}

func (m *MockStorage) DeleteCurrency(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	delete(m.currencies, id)
	return nil
}

// References

func (m *MockStorage) CreateReference(ctx context.Context, r *story.Reference) error {
	if r == nil {
		return errors.New("reference cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	ensureID(&r.ID)
	cp := *r
	m.references[r.ID] = &cp
	return nil
}

func (m *MockStorage) GetReference(ctx context.Context, id uuid.UUID) (*story.Reference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	r, ok := m.references[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MockStorage) ListReferencesByProject(ctx context.Context, projectID uuid.UUID) ([]story.Reference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []story.Reference
	for _, r := range m.references {
		if r.ProjectID == projectID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *MockStorage) UpdateReference(ctx context.Context, r *story.Reference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	cp := *r
	m.references[r.ID] = &cp
	return nil
}

func (m *MockStorage) DeleteReference(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	delete(m.references, id)
	return nil
}

// Settings

func (m *MockStorage) CreateSetting(ctx context.Context, s *story.Setting) error {
	if s == nil {
		return errors.New("setting cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	ensureID(&s.ID)
	cp := *s
	m.settings[s.ID] = &cp
	return nil
}

func (m *MockStorage) GetSetting(ctx context.Context, id uuid.UUID) (*story.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	s, ok := m.settings[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MockStorage) ListSettingsByProject(ctx context.Context, projectID uuid.UUID) ([]story.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []story.Setting
	for _, s := range m.settings {
		if s.ProjectID == projectID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *MockStorage) UpdateSetting(ctx context.Context, s *story.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	cp := *s
	m.settings[s.ID] = &cp
	return nil
}

func (m *MockStorage) DeleteSetting(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	delete(m.settings, id)
	return nil
}
