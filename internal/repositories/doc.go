// Package repositories implements SQLite persistence for the client's local state.
//
// Key Implementations:
//   - [SessionRepository] : login sessions with soft deletes and a "current session" lookup
//   - [SessionTokenStore] : adapts the current session to the HTTP gateway's token store
//
// Sequence numbers provide stable, human-readable ordering (e.g., session #3) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
