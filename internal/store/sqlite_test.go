// ABOUTME: Tests for the SQLite store implementation
// ABOUTME: Covers project path joining, list ordering, deletion, and settings semantics

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestStore_SchemaIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	_, err = first.InsertProject(ctx, "alpha", "/projects")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Re-opening must re-run schema creation without touching data
	second, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer second.Close()

	projects, err := second.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "alpha", projects[0].Name)
}

func TestJoinProjectPath(t *testing.T) {
	tests := []struct {
		name     string
		basePath string
		project  string
		want     string
	}{
		{"no trailing separator", "/home/dev/projects", "game", "/home/dev/projects/game"},
		{"trailing slash", "/home/dev/projects/", "game", "/home/dev/projects/game"},
		{"windows style", `C:\Users\dev\projects`, "game", `C:\Users\dev\projects\game`},
		{"windows trailing backslash", `C:\Users\dev\projects\`, "game", `C:\Users\dev\projects\game`},
		{"mixed separators prefer slash", `C:/Users\dev`, "game", `C:/Users\dev/game`},
		{"root", "/", "game", "/game"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, joinProjectPath(tt.basePath, tt.project))
		})
	}
}

func TestStore_InsertProject(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p, err := store.InsertProject(ctx, "game", "/home/dev/projects/")
	require.NoError(t, err)

	assert.Equal(t, "game", p.Name)
	assert.Equal(t, "/home/dev/projects/game", p.Path)
	assert.NotZero(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	require.NotNil(t, p.LastOpened)
	assert.Equal(t, p.CreatedAt, *p.LastOpened)
}

func TestStore_InsertProject_DuplicatePathAllowed(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.InsertProject(ctx, "game", "/projects")
	require.NoError(t, err)

	second, err := store.InsertProject(ctx, "game", "/projects")
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStore_GetProject(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	inserted, err := store.InsertProject(ctx, "game", "/projects")
	require.NoError(t, err)

	p, err := store.GetProject(ctx, inserted.ID)
	require.NoError(t, err)

	assert.Equal(t, inserted.ID, p.ID)
	assert.Equal(t, "game", p.Name)
	assert.Equal(t, "/projects/game", p.Path)
	require.NotNil(t, p.LastOpened)
	assert.Equal(t, p.CreatedAt, *p.LastOpened)
}

func TestStore_GetProject_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetProject(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListProjects_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	names := []string{"one", "two", "three"}
	for _, name := range names {
		_, err := store.InsertProject(ctx, name, "/projects")
		require.NoError(t, err)
	}

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 3)

	assert.Equal(t, "three", projects[0].Name)
	assert.Equal(t, "two", projects[1].Name)
	assert.Equal(t, "one", projects[2].Name)
}

func TestStore_DeleteProject(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"one", "two", "three"} {
		p, err := store.InsertProject(ctx, name, "/projects")
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	require.NoError(t, store.DeleteProject(ctx, ids[1]))

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	// Remaining order preserved
	assert.Equal(t, "three", projects[0].Name)
	assert.Equal(t, "one", projects[1].Name)
}

func TestStore_DeleteProject_AbsentIsNoop(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.DeleteProject(ctx, 9999)
	assert.NoError(t, err)
}

func TestStore_TouchProject(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p, err := store.InsertProject(ctx, "game", "/projects")
	require.NoError(t, err)

	require.NoError(t, store.TouchProject(ctx, p.ID))

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.NotNil(t, projects[0].LastOpened)
	assert.False(t, projects[0].LastOpened.Before(p.CreatedAt))
}

func TestStore_TouchProject_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.TouchProject(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpsertSetting_Replaces(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertSetting(ctx, "default_editor_path", "/usr/bin/code"))
	require.NoError(t, store.UpsertSetting(ctx, "default_editor_path", "/usr/bin/subl"))

	value, ok, err := store.GetSetting(ctx, "default_editor_path")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/subl", value)
}

func TestStore_GetSetting_Absent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	value, ok, err := store.GetSetting(ctx, "never_set")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestStore_DeleteSetting(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertSetting(ctx, "auth_token", "tok-123"))
	require.NoError(t, store.DeleteSetting(ctx, "auth_token"))

	_, ok, err := store.GetSetting(ctx, "auth_token")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is a no-op
	assert.NoError(t, store.DeleteSetting(ctx, "auth_token"))
}
