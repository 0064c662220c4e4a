// ABOUTME: Entry point for the foxvoid launcher CLI
// ABOUTME: Drives login, project management, and settings against the local store

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/foxvoid/launcher/internal/browser"
	"github.com/foxvoid/launcher/internal/config"
	"github.com/foxvoid/launcher/internal/deviceauth"
	"github.com/foxvoid/launcher/internal/editors"
	"github.com/foxvoid/launcher/internal/launcher"
	"github.com/foxvoid/launcher/internal/session"
	"github.com/foxvoid/launcher/internal/store"
	"github.com/foxvoid/launcher/internal/template"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
   __                      _     _
  / _| _____  ____   _____(_) __| |
 | |_ / _ \ \/ /\ \ / / _ \ |/ _' |
 |  _| (_) >  <  \ V / (_) | | (_| |
 |_|  \___/_/\_\  \_/ \___/|_|\__,_|
`

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit()
	case "login":
		err = runLogin(ctx)
	case "logout":
		err = runLogout(ctx)
	case "whoami":
		err = runWhoami(ctx)
	case "projects":
		err = runProjects(ctx, os.Args[2:])
	case "settings":
		err = runSettings(ctx, os.Args[2:])
	case "editors":
		err = runEditors()
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: foxvoid <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init                          Create a config file with defaults")
	fmt.Println("  login                         Log in via the browser device flow")
	fmt.Println("  logout                        Clear the stored session")
	fmt.Println("  whoami                        Show the logged-in user")
	fmt.Println("  projects list                 List project references")
	fmt.Println("  projects create NAME DIR      Scaffold a project from the template")
	fmt.Println("  projects rm ID                Remove a project reference")
	fmt.Println("  projects open ID              Open a project in the default editor")
	fmt.Println("  settings get KEY              Read a preference")
	fmt.Println("  settings set KEY VALUE        Write a preference")
	fmt.Println("  editors                       List detected code editors")
}

// loadConfig reads the config file, falling back to built-in defaults
// when none exists yet.
func loadConfig() (*config.Config, error) {
	path := config.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

// setup wires the shared store and session manager used by every
// command.
func setup() (*config.Config, *store.SQLiteStore, *session.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	slog.SetDefault(setupLogger(cfg.Logging))

	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, s, session.NewManager(s), nil
}

func newApp(cfg *config.Config, s *store.SQLiteStore) *launcher.App {
	return launcher.New(s, template.NewCloner(), editors.NewLauncher(), cfg.Projects.TemplateURL)
}

func runInit() error {
	path := config.Path()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	dbPath := filepath.Join(config.DataPath(), "foxvoid.db")
	content := fmt.Sprintf(`# foxvoid launcher configuration
# Generated by foxvoid init

auth:
  server_url: "%s"
  poll_interval: "2s"

database:
  path: "%s"

projects:
  template_url: ""

logging:
  level: "info"
  format: "text"
`, config.DefaultServerURL, dbPath)

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Created config: %s\n", path)
	fmt.Println("\nEdit auth.server_url and projects.template_url, then run: foxvoid login")
	return nil
}

func runLogin(ctx context.Context) error {
	cfg, s, sessions, err := setup()
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := sessions.Restore(ctx); err != nil {
		return err
	}
	if sessions.IsAuthenticated() {
		fmt.Printf("Already logged in as %s. Run `foxvoid logout` first to switch accounts.\n",
			sessions.Current().Profile.Username)
		return nil
	}

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	fmt.Println()

	client := deviceauth.NewClient(cfg.Auth.ServerURL)
	flow := deviceauth.NewFlow(client, sessions, browser.OpenURL, cfg.Auth.PollInterval)
	defer flow.Cancel()

	res, err := flow.Start(ctx)
	if err != nil {
		if errors.Is(err, deviceauth.ErrServerUnreachable) {
			return fmt.Errorf("could not reach %s, is the server running? (%w)", cfg.Auth.ServerURL, err)
		}
		return err
	}

	fmt.Println("Approve the request in your browser:")
	cyan.Printf("  %s\n\n", res.VerificationURL)
	fmt.Println("Waiting for approval...")

	select {
	case <-flow.Done():
	case <-ctx.Done():
		flow.Cancel()
		return fmt.Errorf("login cancelled")
	}

	switch flow.State() {
	case deviceauth.StateApproved:
		green := color.New(color.FgGreen)
		green.Printf("  ✓ Logged in as %s\n", sessions.Current().Profile.Username)
		return nil
	case deviceauth.StateExpired:
		return fmt.Errorf("login request expired, run `foxvoid login` again")
	default:
		if err := flow.Err(); err != nil {
			return err
		}
		return fmt.Errorf("login did not complete")
	}
}

func runLogout(ctx context.Context) error {
	_, s, sessions, err := setup()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := sessions.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(ctx context.Context) error {
	_, s, sessions, err := setup()
	if err != nil {
		return err
	}
	defer s.Close()

	sess, err := sessions.Restore(ctx)
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		fmt.Println("Not logged in. Run: foxvoid login")
		return nil
	}

	fmt.Printf("Username: %s\n", sess.Profile.Username)
	fmt.Printf("Avatar:   %s\n", sess.Profile.Avatar)
	return nil
}

func runProjects(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: foxvoid projects <list|create|rm|open>")
	}

	cfg, s, _, err := setup()
	if err != nil {
		return err
	}
	defer s.Close()
	app := newApp(cfg, s)

	switch args[0] {
	case "list":
		projects, err := app.ListProjects(ctx)
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("No projects yet. Run: foxvoid projects create NAME DIR")
			return nil
		}

		gray := color.New(color.FgHiBlack)
		for _, p := range projects {
			fmt.Printf("%4d  %-20s %s", p.ID, p.Name, p.Path)
			if p.LastOpened != nil {
				gray.Printf("  (last opened %s)", p.LastOpened.Format("Jan 02 15:04"))
			}
			fmt.Println()
		}
		return nil

	case "create":
		if len(args) != 3 {
			return fmt.Errorf("usage: foxvoid projects create NAME DIR")
		}
		project, err := app.CreateProject(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Printf("  ✓ Created project %s at %s\n", project.Name, project.Path)
		return nil

	case "rm":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		if err := app.RemoveProject(ctx, id); err != nil {
			return err
		}
		fmt.Println("Removed. The folder on disk was not touched.")
		return nil

	case "open":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		err = app.OpenProject(ctx, id)
		if errors.Is(err, launcher.ErrNoEditorConfigured) {
			fmt.Println("No default editor configured.")
			fmt.Println("Pick one with: foxvoid editors")
			fmt.Println("Then:          foxvoid settings set default_editor_path /path/to/editor")
			return nil
		}
		return err

	default:
		return fmt.Errorf("unknown projects subcommand: %s", args[0])
	}
}

func parseID(args []string) (int64, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("usage: foxvoid projects %s ID", args[0])
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid project id %q", args[1])
	}
	return id, nil
}

func runSettings(ctx context.Context, args []string) error {
	cfg, s, _, err := setup()
	if err != nil {
		return err
	}
	defer s.Close()
	app := newApp(cfg, s)

	switch {
	case len(args) == 2 && args[0] == "get":
		value, ok, err := app.Setting(ctx, args[1])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("%s is not set\n", args[1])
			return nil
		}
		fmt.Println(value)
		return nil

	case len(args) == 3 && args[0] == "set":
		return app.SetSetting(ctx, args[1], args[2])

	default:
		return fmt.Errorf("usage: foxvoid settings get KEY | set KEY VALUE")
	}
}

func runEditors() error {
	found := editors.Detect()
	if len(found) == 0 {
		fmt.Println("No editors found on PATH.")
		fmt.Println("Set one manually: foxvoid settings set default_editor_path /path/to/editor")
		return nil
	}

	gray := color.New(color.FgHiBlack)
	for _, e := range found {
		fmt.Printf("%-20s", e.Name)
		gray.Printf(" %s\n", e.Path)
	}
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(&colorHandler{level: level})
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu    sync.Mutex
	level slog.Level
	attrs []slog.Attr
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Fprint(os.Stderr, buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level: h.level,
		attrs: newAttrs,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	return h
}
