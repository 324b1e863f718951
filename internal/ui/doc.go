// Package ui implements an interactive terminal browser for the video catalog using bubbletea's Elm architecture.
//
// The TUI moves through these views:
//  1. [VideoListView] : Browse a page of the catalog, n/p to change page
//  2. [DetailView] : Inspect a video and its comments
//  3. [ConfirmView] : Confirm exporting the catalog
//  4. [ExportView] : Monitor real-time progress updates
//  5. [ResultView] : Display the written files and any failed pages
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// Progress updates flow through a channel from the export engine, providing non-blocking status reporting during exports.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
