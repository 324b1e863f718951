// Package tasks runs the long CLI operations that walk paged backend collections,
// reporting progress as they go.
//
// # Paged Export
//
// [ExportEngine.Export] walks a paged collection (the public catalog, pending videos)
// page by page:
//
//  1. Page 1 is fetched first to learn the page count.
//  2. Remaining pages are fetched by a bounded errgroup, throttled by a token-bucket
//     limiter. When the backend does not report a page count the walk follows
//     nextPage one page at a time instead.
//  3. Videos are reassembled in page order and written through the formatter package.
//
// A failed page is recorded and skipped; cancellation stops the walk.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for UIs.
// Updates use select with default to prevent blocking.
//
// # Run History
//
// Every export is recorded through a [models.Repository] of [models.ExportRun]
// (repositories.ExportRunRepository in the CLI) when one is configured.
package tasks
