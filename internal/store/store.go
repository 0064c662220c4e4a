// ABOUTME: Store interfaces and data types for launcher persistence
// ABOUTME: Defines Project records and the project/settings store contracts

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnavailable is returned when the durable store cannot be opened
// or created at its disk location.
var ErrUnavailable = errors.New("storage unavailable")

// Project is a reference to a project folder on disk. Deleting a
// Project removes only the reference, never the underlying folder.
type Project struct {
	ID         int64
	Name       string
	Path       string
	LastOpened *time.Time
	CreatedAt  time.Time
}

// ProjectStore defines project reference persistence.
type ProjectStore interface {
	// InsertProject computes the project path by joining basePath and
	// name, inserts a new row with created_at and last_opened set to
	// now, and returns the stored record. Duplicate paths are allowed.
	InsertProject(ctx context.Context, name, basePath string) (*Project, error)

	// GetProject returns a single project by ID.
	// Returns ErrNotFound if the project doesn't exist.
	GetProject(ctx context.Context, id int64) (*Project, error)

	// ListProjects returns all projects, newest first.
	ListProjects(ctx context.Context) ([]*Project, error)

	// DeleteProject removes a project reference. Deleting an absent
	// ID is a no-op, not an error.
	DeleteProject(ctx context.Context, id int64) error

	// TouchProject refreshes last_opened for a project.
	// Returns ErrNotFound if the project doesn't exist.
	TouchProject(ctx context.Context, id int64) error
}

// SettingsStore defines key/value preference persistence. The session
// token and profile live in the same key space.
type SettingsStore interface {
	// UpsertSetting inserts or replaces a value by key. Idempotent.
	UpsertSetting(ctx context.Context, key, value string) error

	// GetSetting returns the stored value for key. Absence is
	// reported via the second return, not as an error.
	GetSetting(ctx context.Context, key string) (string, bool, error)

	// DeleteSetting removes a key. Deleting an absent key is a no-op.
	DeleteSetting(ctx context.Context, key string) error
}

// Store is the full persistence surface backing the launcher.
type Store interface {
	ProjectStore
	SettingsStore

	// Close releases any resources held by the store.
	Close() error
}
