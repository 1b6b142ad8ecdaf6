package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	"github.com/desertthunder/ytsync/internal/ui"
)

const tuiLogPath = "./tmp/ytsync-tui.log"

// runTUI runs the engine behind the interactive progress view.
func (r *Runner) runTUI(ctx context.Context, engine tasks.SyncEngine, settings shared.SyncSettings) (*tasks.Summary, error) {
	model := ui.NewProgressModel(ctx, engine, settings)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	summary := final.(*ui.ProgressModel).Summary()
	if summary == nil {
		return nil, fmt.Errorf("sync did not finish: %w", context.Canceled)
	}
	return summary, nil
}
