// Package config loads the launcher's YAML configuration with
// environment variable expansion and duration parsing, and resolves
// the XDG-style config and data paths.
package config
