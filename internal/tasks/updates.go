package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Stage   Stage  // Stage the run is in
	Step    int    // Current step number within the stage
	Total   int    // Total steps in this stage
	Message string // Human-readable message for display
	Data    any    // Optional stage-specific data for advanced UIs
}

// Stage enumerates the steps of a sync run, in order.
type Stage int

const (
	StageValidate Stage = iota
	StageAuthenticate
	StageResolveSourceUploads
	StageListSource
	StageResolveDestination
	StageListDestination
	StageDiff
	StageAdd
	StageSummarize
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "validate"
	case StageAuthenticate:
		return "authenticate"
	case StageResolveSourceUploads:
		return "resolve_source_uploads"
	case StageListSource:
		return "list_source"
	case StageResolveDestination:
		return "resolve_destination"
	case StageListDestination:
		return "list_destination"
	case StageDiff:
		return "diff"
	case StageAdd:
		return "add"
	case StageSummarize:
		return "summarize"
	case StageDone:
		return "done"
	default:
		return ""
	}
}

// MarshalText lets stages appear by name in JSON output.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const stageCount = int(StageDone)

func stageUpdate(stage Stage, message string) ProgressUpdate {
	return ProgressUpdate{
		Stage:   stage,
		Step:    int(stage) + 1,
		Total:   stageCount,
		Message: message,
	}
}

func listedUpdate(stage Stage, count int, playlistID string) ProgressUpdate {
	u := stageUpdate(stage, fmt.Sprintf("Found %d videos in %s", count, playlistID))
	u.Data = count
	return u
}

func destinationUpdate(pl string, id string) ProgressUpdate {
	u := stageUpdate(StageResolveDestination, fmt.Sprintf("Using playlist %q (%s)", pl, id))
	u.Data = id
	return u
}

func diffUpdate(missing, extras int) ProgressUpdate {
	return stageUpdate(StageDiff, fmt.Sprintf("%d missing, %d extra", missing, extras))
}

func addUpdate(step, total, added, failed int, videoID string) ProgressUpdate {
	return ProgressUpdate{
		Stage:   StageAdd,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%d added, %d failed)", step, total, videoID, added, failed),
	}
}

func doneUpdate(summary *Summary) ProgressUpdate {
	return ProgressUpdate{
		Stage:   StageDone,
		Step:    stageCount,
		Total:   stageCount,
		Message: "Sync finished",
		Data:    summary,
	}
}
