// package formatter renders sync run reports to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
)

// Format names accepted by [Export].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Formats lists every supported format.
var Formats = []string{FormatText, FormatJSON, FormatCSV, FormatMarkdown}

type field struct {
	key   string
	value string
}

func fields(s *tasks.Summary) []field {
	var dest, destTitle string
	if s.Destination != nil {
		dest, destTitle = s.Destination.ID, s.Destination.Title
	}

	return []field{
		{"run_id", s.RunID},
		{"channel_id", s.ChannelID},
		{"source_playlist_id", s.SourcePlaylistID},
		{"destination_id", dest},
		{"destination_title", destTitle},
		{"source_count", strconv.Itoa(s.SourceCount)},
		{"destination_count", strconv.Itoa(s.DestinationCount)},
		{"missing", strconv.Itoa(s.Missing)},
		{"extras", strconv.Itoa(s.Extras)},
		{"added", strconv.Itoa(s.Added)},
		{"failed", strconv.Itoa(s.Failed)},
		{"final_count", strconv.FormatInt(s.FinalCount, 10)},
		{"shortfall", strconv.FormatInt(s.Shortfall, 10)},
		{"stage", s.Stage.String()},
		{"started_at", formatTime(s.StartedAt)},
		{"finished_at", formatTime(s.FinishedAt)},
		{"error", s.Error},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ExportToJSON renders the summary as indented JSON.
func ExportToJSON(s *tasks.Summary) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV renders the summary as a two-column CSV with a Field,Value header
func ExportToCSV(s *tasks.Summary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Field", "Value"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, f := range fields(s) {
		if err := writer.Write([]string{f.key, f.value}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the summary as a Markdown report
func ExportToMarkdown(s *tasks.Summary) ([]byte, error) {
	var buf bytes.Buffer

	title := "Sync report"
	if s.Destination != nil && s.Destination.Title != "" {
		title = fmt.Sprintf("Sync report: %s", s.Destination.Title)
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)

	status := "complete"
	if s.Err != nil || s.Error != "" {
		status = fmt.Sprintf("failed during `%s`", s.Stage)
	}
	fmt.Fprintf(&buf, "**Status**: %s\n", status)
	fmt.Fprintf(&buf, "**Channel**: %s\n", s.ChannelID)
	if s.Destination != nil {
		fmt.Fprintf(&buf, "**Playlist**: [%s](https://www.youtube.com/playlist?list=%s)\n", s.Destination.Title, s.Destination.ID)
	}
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(&buf, "**Started**: %s\n", formatTime(s.StartedAt))
	}
	buf.WriteString("\n## Counts\n\n")
	buf.WriteString("| Metric | Value |\n|---|---|\n")
	for _, row := range [][2]string{
		{"Videos in channel", strconv.Itoa(s.SourceCount)},
		{"Already in playlist", strconv.Itoa(s.DestinationCount)},
		{"Missing", strconv.Itoa(s.Missing)},
		{"Added", strconv.Itoa(s.Added)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Only in playlist", strconv.Itoa(s.Extras)},
		{"Final playlist size", strconv.FormatInt(s.FinalCount, 10)},
	} {
		fmt.Fprintf(&buf, "| %s | %s |\n", row[0], row[1])
	}

	if s.Shortfall > 0 {
		fmt.Fprintf(&buf, "\n> The playlist has %d fewer videos than the channel.\n", s.Shortfall)
	}
	if s.Error != "" {
		fmt.Fprintf(&buf, "\n## Error\n\n```\n%s\n```\n", s.Error)
	}

	return buf.Bytes(), nil
}

// ExportToText renders the summary as aligned key/value lines
func ExportToText(s *tasks.Summary) ([]byte, error) {
	var buf bytes.Buffer
	for _, f := range fields(s) {
		if f.value == "" {
			continue
		}
		fmt.Fprintf(&buf, "%-20s %s\n", f.key+":", f.value)
	}
	return buf.Bytes(), nil
}

// Export renders s in the named format.
func Export(s *tasks.Summary, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return ExportToJSON(s)
	case FormatCSV:
		return ExportToCSV(s)
	case FormatMarkdown, "md":
		return ExportToMarkdown(s)
	case FormatText, "txt", "":
		return ExportToText(s)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (expected one of %s)", shared.ErrInvalidInput, format, strings.Join(Formats, ", "))
	}
}

// FormatFromPath infers the format from a file extension, defaulting to text.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatText
	}
}

// WriteReport writes s to path, creating parent directories.
//
// An empty format is inferred from the extension of path.
func WriteReport(s *tasks.Summary, path, format string) error {
	if path == "" {
		return fmt.Errorf("%w: report path", shared.ErrMissingArgument)
	}
	if format == "" {
		format = FormatFromPath(path)
	}

	data, err := Export(s, format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
