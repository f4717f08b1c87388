// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist sync:
//  1. [TargetListView] : Browse the Apple Music playlists flagged for sync
//  2. [ConfirmView] : Confirm the sync run (with optional dry run)
//  3. [SyncView] : Monitor real-time progress updates
//  4. [ResultView] : Display run totals and unmatched tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the PlaylistEngine, providing non-blocking status reporting during the run.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n/d, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
