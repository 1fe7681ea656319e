// Package tasks binds backend operations to the query cache and streams live updates to views.
//
// # Queries
//
// [Queries] reads every endpoint through the cache under its fixed key, so the CLI and TUI share
// de-duplicated loads and see the same invalidations. [Queries.TriggerAnalysis] is the one
// mutation: it runs once and marks the dashboard stale on success.
//
// # Live updates
//
// [LiveSync] owns the push [live.Channel] and forwards three kinds of [Update] to a view:
// connection state changes, recognized push messages and cache invalidations.
//
// Updates use select with default, so a slow consumer loses intermediate updates and the socket
// read loop never blocks.
package tasks
