// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Persists project references and settings with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	sharedMu sync.Mutex
	shared   *SQLiteStore
)

// Open returns the shared process-wide store, creating it on the first
// call. Subsequent calls return the same handle regardless of path; the
// handle is valid for the process lifetime.
func Open(path string) (*SQLiteStore, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		return shared, nil
	}

	s, err := NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	shared = s
	return shared, nil
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist and is safe
// to re-run on every startup. Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating database directory: %v", ErrUnavailable, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", ErrUnavailable, err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling WAL mode: %v", ErrUnavailable, err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %v", ErrUnavailable, err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			last_opened TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_projects_created ON projects(created_at DESC);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// joinProjectPath joins a base directory and a project name with
// exactly one separator. The separator style is detected from the base
// path's own content: backslash only when the base uses backslashes
// exclusively. A single trailing separator on the base is stripped.
func joinProjectPath(basePath, name string) string {
	sep := "/"
	if strings.Contains(basePath, `\`) && !strings.Contains(basePath, "/") {
		sep = `\`
	}

	base := strings.TrimSuffix(basePath, sep)
	return base + sep + name
}

// InsertProject inserts a new project reference. The stored path is
// the base directory joined with the name; duplicate paths are not
// rejected.
func (s *SQLiteStore) InsertProject(ctx context.Context, name, basePath string) (*Project, error) {
	now := time.Now().UTC().Truncate(time.Second)
	path := joinProjectPath(basePath, name)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (name, path, last_opened, created_at)
		VALUES (?, ?, ?, ?)
	`, name, path, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading project id: %w", err)
	}

	s.logger.Debug("created project", "id", id, "name", name, "path", path)

	lastOpened := now
	return &Project{
		ID:         id,
		Name:       name,
		Path:       path,
		LastOpened: &lastOpened,
		CreatedAt:  now,
	}, nil
}

// GetProject returns a single project reference by ID.
// Returns ErrNotFound if the project doesn't exist.
func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*Project, error) {
	var p Project
	var lastOpened sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, path, last_opened, created_at
		FROM projects
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Path, &lastOpened, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project %d: %w", id, err)
	}

	p.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if lastOpened.Valid {
		t, err := time.Parse(time.RFC3339, lastOpened.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_opened: %w", err)
		}
		p.LastOpened = &t
	}

	return &p, nil
}

// ListProjects returns all project references, newest first. Ties on
// created_at fall back to insertion order.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, path, last_opened, created_at
		FROM projects
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var lastOpened sql.NullString
		var createdAt string

		if err := rows.Scan(&p.ID, &p.Name, &p.Path, &lastOpened, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}

		p.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		if lastOpened.Valid {
			t, err := time.Parse(time.RFC3339, lastOpened.String)
			if err != nil {
				return nil, fmt.Errorf("parsing last_opened: %w", err)
			}
			p.LastOpened = &t
		}

		projects = append(projects, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project rows: %w", err)
	}

	return projects, nil
}

// DeleteProject removes a project reference. Removing an absent ID is
// a no-op; the underlying folder is never touched.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.logger.Debug("deleted project", "id", id)
	}
	return nil
}

// TouchProject refreshes last_opened for a project.
// Returns ErrNotFound if the project doesn't exist.
func (s *SQLiteStore) TouchProject(ctx context.Context, id int64) error {
	now := time.Now().UTC().Truncate(time.Second)
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects SET last_opened = ? WHERE id = ?
	`, now.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("touching project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertSetting inserts or replaces a setting by key
func (s *SQLiteStore) UpsertSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)
	`, key, value)
	if err != nil {
		return fmt.Errorf("upserting setting %q: %w", key, err)
	}

	s.logger.Debug("saved setting", "key", key)
	return nil
}

// GetSetting returns the stored value for key. An unset key reports
// absence, never an error.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying setting %q: %w", key, err)
	}

	return value, true, nil
}

// DeleteSetting removes a setting. Removing an absent key is a no-op.
func (s *SQLiteStore) DeleteSetting(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting setting %q: %w", key, err)
	}
	return nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
