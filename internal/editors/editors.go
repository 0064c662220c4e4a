// ABOUTME: Editor discovery and launching for the settings and project-open surfaces
// ABOUTME: Probes a known-editor table with exec.LookPath; spawns the editor detached

package editors

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Editor describes an installed code editor.
type Editor struct {
	Name string
	Slug string
	Path string
}

// candidates are the editors the launcher knows how to find on PATH.
var candidates = []struct {
	name string
	slug string
	bins []string
}{
	{"Visual Studio Code", "vscode", []string{"code"}},
	{"VSCodium", "vscodium", []string{"codium"}},
	{"Sublime Text", "sublime", []string{"subl", "sublime_text"}},
	{"Zed", "zed", []string{"zed"}},
	{"JetBrains Fleet", "fleet", []string{"fleet"}},
	{"Neovim", "neovim", []string{"nvim"}},
}

// Detect returns the editors found on PATH. Read-only discovery used to
// pre-populate settings; callers must not rely on its completeness.
func Detect() []Editor {
	var found []Editor
	for _, c := range candidates {
		for _, bin := range c.bins {
			path, err := exec.LookPath(bin)
			if err != nil {
				continue
			}
			found = append(found, Editor{Name: c.name, Slug: c.slug, Path: path})
			break
		}
	}
	return found
}

// Launcher opens projects in an editor executable.
type Launcher struct {
	logger *slog.Logger
}

// NewLauncher creates an editor launcher.
func NewLauncher() *Launcher {
	return &Launcher{logger: slog.Default().With("component", "editors")}
}

// OpenInEditor starts the editor on the project path without waiting
// for it to exit.
func (l *Launcher) OpenInEditor(ctx context.Context, projectPath, editorPath string) error {
	cmd := exec.CommandContext(ctx, editorPath, projectPath)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting editor %s: %w", editorPath, err)
	}

	l.logger.Debug("editor started", "editor", editorPath, "project", projectPath)

	// Reap the process when it eventually exits
	go func() { _ = cmd.Wait() }()
	return nil
}
