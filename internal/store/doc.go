// Package store provides persistent storage for the launcher using SQLite.
//
// Two logical tables back the whole application:
//
//   - projects: project references (name, resolved path, timestamps)
//   - settings: key/value preferences; the session token and serialized
//     profile live in this key space too
//
// The schema is created idempotently on every open, so startup never
// needs a separate migration step. SQLite runs in WAL mode:
//
//	PRAGMA journal_mode=WAL;
//
// Open returns a single shared handle for the process lifetime;
// NewSQLiteStore constructs an independent store (used by tests with
// t.TempDir paths).
//
// Common errors:
//
//   - ErrNotFound: requested entity does not exist
//   - ErrUnavailable: the disk location cannot be created or opened
//
// Use NewMockStore() for unit tests that don't need real SQLite.
package store
