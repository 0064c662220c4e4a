// Package session owns the authenticated-user state for the launcher.
//
// Manager is an explicitly constructed, injected instance; there is no
// ambient global session. It persists the opaque bearer token and the
// serialized profile in the store's settings key space and guarantees
// that readers always see token and profile together or not at all.
package session
