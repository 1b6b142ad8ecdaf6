// Package ui renders sync runs in the terminal.
//
// [RenderSummary] formats a finished run with lipgloss. [ProgressModel] follows bubbletea's
// Init/Update/View pattern: it starts the run in the background, consumes [tasks.ProgressUpdate]
// values from the engine's channel, and shows a spinner per stage and a progress bar while videos are added.
package ui
