// Package tasks synchronizes a channel's uploads into a playlist with real-time progress reporting.
//
// # Core Operations
//
// [SyncEngine.Run] walks a fixed sequence of stages:
//
//  1. Validate the settings and check for a usable token
//  2. Look up the channel's uploads playlist and list its videos ([Lister])
//  3. Resolve the destination playlist by ID, by title, or by creating it ([Resolver])
//  4. List the destination, compute the missing videos and add them one by one ([Adder])
//  5. Re-count the destination and warn about any shortfall
//
// Requests are strictly sequential. Pagination and adds retry through [WithRetry];
// a courtesy pause follows every page that has a successor.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains stage, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
