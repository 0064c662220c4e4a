// ABOUTME: Tests for the launcher application service
// ABOUTME: Covers create ordering, editor guard, and last_opened refresh

package launcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxvoid/launcher/internal/store"
)

type fakeFolders struct {
	err   error
	calls int
}

func (f *fakeFolders) CreateProjectFolder(ctx context.Context, name, basePath, templateURL string) error {
	f.calls++
	return f.err
}

type fakeEditor struct {
	err    error
	opened []string
}

func (f *fakeEditor) OpenInEditor(ctx context.Context, projectPath, editorPath string) error {
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, editorPath+" "+projectPath)
	return nil
}

func newTestApp() (*App, *store.MockStore, *fakeFolders, *fakeEditor) {
	mock := store.NewMockStore()
	folders := &fakeFolders{}
	editor := &fakeEditor{}
	return New(mock, folders, editor, "https://git.example/template.git"), mock, folders, editor
}

func TestApp_CreateProject(t *testing.T) {
	app, mock, folders, _ := newTestApp()
	ctx := context.Background()

	p, err := app.CreateProject(ctx, "game", "/projects")
	require.NoError(t, err)

	assert.Equal(t, 1, folders.calls)
	assert.Equal(t, "/projects/game", p.Path)

	projects, err := mock.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestApp_CreateProject_FolderFailureLeavesNoRow(t *testing.T) {
	app, mock, folders, _ := newTestApp()
	folders.err = errors.New("git clone failed")
	ctx := context.Background()

	_, err := app.CreateProject(ctx, "game", "/projects")
	require.Error(t, err)

	projects, err := mock.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects, "failed folder creation must not leave an orphan registry row")
}

func TestApp_CreateProject_EmptyName(t *testing.T) {
	app, _, folders, _ := newTestApp()

	_, err := app.CreateProject(context.Background(), "   ", "/projects")
	require.Error(t, err)
	assert.Zero(t, folders.calls)
}

func TestApp_OpenProject_NoEditorConfigured(t *testing.T) {
	app, mock, _, editor := newTestApp()
	ctx := context.Background()

	p, err := mock.InsertProject(ctx, "game", "/projects")
	require.NoError(t, err)

	err = app.OpenProject(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNoEditorConfigured)
	assert.Empty(t, editor.opened)
}

func TestApp_OpenProject(t *testing.T) {
	app, mock, _, editor := newTestApp()
	ctx := context.Background()

	require.NoError(t, app.SetDefaultEditor(ctx, "VS Code", "/usr/bin/code"))
	p, err := mock.InsertProject(ctx, "game", "/projects")
	require.NoError(t, err)

	require.NoError(t, app.OpenProject(ctx, p.ID))

	require.Len(t, editor.opened, 1)
	assert.Equal(t, "/usr/bin/code /projects/game", editor.opened[0])
}

func TestApp_OpenProject_UnknownID(t *testing.T) {
	app, _, _, _ := newTestApp()
	ctx := context.Background()

	require.NoError(t, app.SetDefaultEditor(ctx, "VS Code", "/usr/bin/code"))

	err := app.OpenProject(ctx, 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApp_RemoveProject(t *testing.T) {
	app, mock, _, _ := newTestApp()
	ctx := context.Background()

	p, err := mock.InsertProject(ctx, "game", "/projects")
	require.NoError(t, err)

	require.NoError(t, app.RemoveProject(ctx, p.ID))

	projects, err := app.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	// Removing again is a no-op
	assert.NoError(t, app.RemoveProject(ctx, p.ID))
}
