// Package launcher is the application service behind the CLI: project
// creation, listing, removal and opening, plus settings access. The
// physical-folder and editor collaborators are injected interfaces so
// the service can be tested without touching disk or spawning editors.
package launcher
