package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
)

// RenderSummary formats a finished run for the terminal.
func RenderSummary(s *tasks.Summary) string {
	if s == nil {
		return styles.err.Render("No result available")
	}

	if s.AuthURL != "" {
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.warn.Render("Authorization required"),
			"Open this URL, grant access, then run the sync again:",
			s.AuthURL,
		)
	}
	if errors.Is(s.Err, shared.ErrNotAuthenticated) {
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.warn.Render("Authorization required"),
			"Run `ytsync auth login`, then run the sync again.",
		)
	}

	var title string
	switch {
	case s.Err != nil:
		title = styles.err.Render(fmt.Sprintf("✗ Sync failed during %s", s.Stage))
	case s.Shortfall > 0:
		title = styles.warn.Render("! Sync finished with a shortfall")
	default:
		title = styles.ok.Render("✓ Sync complete")
	}

	rows := [][2]string{
		{"Channel", s.ChannelID},
		{"Uploads playlist", s.SourcePlaylistID},
	}
	if s.Destination != nil {
		rows = append(rows, [2]string{"Destination", fmt.Sprintf("%s (%s)", s.Destination.Title, s.Destination.ID)})
	}
	rows = append(rows,
		[2]string{"Videos in channel", fmt.Sprint(s.SourceCount)},
		[2]string{"Already in playlist", fmt.Sprint(s.DestinationCount)},
		[2]string{"Missing", fmt.Sprint(s.Missing)},
		[2]string{"Added", fmt.Sprint(s.Added)},
		[2]string{"Failed", fmt.Sprint(s.Failed)},
		[2]string{"Only in playlist", fmt.Sprint(s.Extras)},
		[2]string{"Final playlist size", fmt.Sprint(s.FinalCount)},
	)
	if !s.FinishedAt.IsZero() {
		rows = append(rows, [2]string{"Duration", s.Duration().Round(time.Second).String()})
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(styles.label.Render(row[0]))
		b.WriteString(row[1])
	}

	parts := []string{title, styles.box.Render(b.String())}
	if s.Shortfall > 0 {
		parts = append(parts, styles.warn.Render(fmt.Sprintf("The playlist has %d fewer videos than the channel.", s.Shortfall)))
	}
	if s.Err != nil {
		parts = append(parts, styles.err.Render(s.Err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
