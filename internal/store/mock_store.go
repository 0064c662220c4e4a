// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	nextID   int64
	projects map[int64]*Project // keyed by project ID
	settings map[string]string  // keyed by setting key

	// FailWrites makes every mutating call return ErrUnavailable,
	// simulating a broken disk.
	FailWrites bool
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		nextID:   1,
		projects: make(map[int64]*Project),
		settings: make(map[string]string),
	}
}

// InsertProject stores a new project reference.
func (m *MockStore) InsertProject(ctx context.Context, name, basePath string) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return nil, ErrUnavailable
	}

	now := time.Now().UTC().Truncate(time.Second)
	lastOpened := now
	p := &Project{
		ID:         m.nextID,
		Name:       name,
		Path:       joinProjectPath(basePath, name),
		LastOpened: &lastOpened,
		CreatedAt:  now,
	}
	m.nextID++
	m.projects[p.ID] = p

	result := *p
	return &result, nil
}

// GetProject returns a single project by ID.
func (m *MockStore) GetProject(ctx context.Context, id int64) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}

	result := *p
	return &result, nil
}

// ListProjects returns all projects, newest first.
func (m *MockStore) ListProjects(ctx context.Context) ([]*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var projects []*Project
	for _, p := range m.projects {
		result := *p
		projects = append(projects, &result)
	}

	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		}
		return projects[i].ID > projects[j].ID
	})

	return projects, nil
}

// DeleteProject removes a project reference. Absent IDs are a no-op.
func (m *MockStore) DeleteProject(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrUnavailable
	}

	delete(m.projects, id)
	return nil
}

// TouchProject refreshes last_opened for a project.
func (m *MockStore) TouchProject(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrUnavailable
	}

	p, ok := m.projects[id]
	if !ok {
		return ErrNotFound
	}

	now := time.Now().UTC().Truncate(time.Second)
	p.LastOpened = &now
	return nil
}

// UpsertSetting inserts or replaces a setting by key.
func (m *MockStore) UpsertSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrUnavailable
	}

	m.settings[key] = value
	return nil
}

// GetSetting returns the stored value for key.
func (m *MockStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.settings[key]
	return value, ok, nil
}

// DeleteSetting removes a setting. Absent keys are a no-op.
func (m *MockStore) DeleteSetting(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrUnavailable
	}

	delete(m.settings, key)
	return nil
}

// Close is a no-op for the mock.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)
