// ABOUTME: Project folder scaffolding by shallow-cloning a template repository
// ABOUTME: Implements the launcher.FolderCreator collaborator

package template

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Cloner creates project folders from a git template repository.
type Cloner struct {
	logger *slog.Logger
}

// NewCloner creates a template cloner.
func NewCloner() *Cloner {
	return &Cloner{logger: slog.Default().With("component", "template")}
}

// CreateProjectFolder clones templateURL into basePath/name with depth 1
// and detaches the copy from the template's history. Fails if the
// target folder already exists.
func (c *Cloner) CreateProjectFolder(ctx context.Context, name, basePath, templateURL string) error {
	target := filepath.Join(basePath, name)

	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("a folder named %q already exists in %s", name, basePath)
	}

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", templateURL, target)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git clone failed: %w: %s", err, output)
	}

	// Detach from the template's history
	if err := os.RemoveAll(filepath.Join(target, ".git")); err != nil {
		return fmt.Errorf("removing .git directory: %w", err)
	}

	c.logger.Info("project folder created", "path", target, "template", templateURL)
	return nil
}
