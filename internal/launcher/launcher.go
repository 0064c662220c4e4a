// ABOUTME: Application service composing store, session, and external collaborators
// ABOUTME: Project creation/opening with folder-before-insert and editor guard semantics

package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foxvoid/launcher/internal/store"
)

// ErrNoEditorConfigured is returned when a project open requires a
// default editor and none has been chosen. Surfaced as a prompt to
// configure one, not a hard failure.
var ErrNoEditorConfigured = errors.New("no default editor configured")

// Settings keys owned by the launcher surface.
const (
	SettingEditorPath = "default_editor_path"
	SettingEditorName = "default_editor_name"
)

// FolderCreator materializes the project folder on disk, typically by
// cloning a template. It runs before the registry insert; its failure
// aborts project creation.
type FolderCreator interface {
	CreateProjectFolder(ctx context.Context, name, basePath, templateURL string) error
}

// EditorOpener launches the configured editor on a project path.
type EditorOpener interface {
	OpenInEditor(ctx context.Context, projectPath, editorPath string) error
}

// App is the launcher's application service. All dependencies are
// injected; it holds no global state.
type App struct {
	store       store.Store
	folders     FolderCreator
	editor      EditorOpener
	templateURL string
	logger      *slog.Logger
}

// New creates the launcher service.
func New(s store.Store, folders FolderCreator, editor EditorOpener, templateURL string) *App {
	return &App{
		store:       s,
		folders:     folders,
		editor:      editor,
		templateURL: templateURL,
		logger:      slog.Default().With("component", "launcher"),
	}
}

// CreateProject scaffolds the project folder and records the reference.
// The folder step runs first so a failed clone never leaves an orphan
// registry row.
func (a *App) CreateProject(ctx context.Context, name, basePath string) (*store.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name must not be empty")
	}
	if basePath == "" {
		return nil, fmt.Errorf("base directory must not be empty")
	}

	if err := a.folders.CreateProjectFolder(ctx, name, basePath, a.templateURL); err != nil {
		return nil, fmt.Errorf("creating project folder: %w", err)
	}

	project, err := a.store.InsertProject(ctx, name, basePath)
	if err != nil {
		return nil, fmt.Errorf("recording project: %w", err)
	}

	a.logger.Info("project created", "id", project.ID, "path", project.Path)
	return project, nil
}

// ListProjects returns all project references, newest first.
func (a *App) ListProjects(ctx context.Context) ([]*store.Project, error) {
	return a.store.ListProjects(ctx)
}

// RemoveProject deletes the reference only; the folder on disk is
// never touched.
func (a *App) RemoveProject(ctx context.Context, id int64) error {
	return a.store.DeleteProject(ctx, id)
}

// OpenProject launches the default editor on the project's path and
// refreshes its last-opened timestamp. Without a configured editor it
// returns ErrNoEditorConfigured and does nothing else.
func (a *App) OpenProject(ctx context.Context, id int64) error {
	editorPath, ok, err := a.store.GetSetting(ctx, SettingEditorPath)
	if err != nil {
		return fmt.Errorf("reading editor setting: %w", err)
	}
	if !ok || editorPath == "" {
		return ErrNoEditorConfigured
	}

	project, err := a.store.GetProject(ctx, id)
	if err != nil {
		return fmt.Errorf("looking up project: %w", err)
	}

	if err := a.editor.OpenInEditor(ctx, project.Path, editorPath); err != nil {
		return fmt.Errorf("opening editor: %w", err)
	}

	if err := a.store.TouchProject(ctx, id); err != nil {
		a.logger.Warn("could not refresh last_opened", "id", id, "error", err)
	}

	a.logger.Info("project opened", "id", id, "editor", editorPath)
	return nil
}

// SetDefaultEditor stores the editor used by OpenProject.
func (a *App) SetDefaultEditor(ctx context.Context, name, path string) error {
	if err := a.store.UpsertSetting(ctx, SettingEditorPath, path); err != nil {
		return err
	}
	return a.store.UpsertSetting(ctx, SettingEditorName, name)
}

// Setting reads a raw preference value.
func (a *App) Setting(ctx context.Context, key string) (string, bool, error) {
	return a.store.GetSetting(ctx, key)
}

// SetSetting writes a raw preference value.
func (a *App) SetSetting(ctx context.Context, key, value string) error {
	return a.store.UpsertSetting(ctx, key, value)
}
