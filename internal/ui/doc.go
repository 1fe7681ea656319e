// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [DashboardView] : Stat cards and the pull request list with status badges
//  2. [AnalysisView] : The latest review of one pull request
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Data is read through a [Source], normally the cached [tasks.Queries]. Live updates arrive on a [tasks.Update]
// channel; when an invalidation touches a query the current view shows, the view reads it again.
//
// A yellow banner is shown whenever the push channel is not connected.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, a, r, o, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
