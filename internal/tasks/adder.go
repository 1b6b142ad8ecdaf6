package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
)

const (
	addAttempts         = 2
	addResponseBackoff  = 1500 * time.Millisecond
	addTransportBackoff = 2000 * time.Millisecond

	escalateAfter = 5  // failures before the pause escalates
	progressEvery = 20 // videos between progress log lines
)

// AdderOpts configures an [Adder].
type AdderOpts struct {
	API               services.PlaylistService
	Logger            *log.Logger
	ItemInterval      time.Duration // pause after each video
	EscalatedInterval time.Duration // pause once failures pile up
	Sleep             Sleeper
}

// Adder appends videos to a playlist one at a time.
//
// Its failure count spans every call, so create one per run.
type Adder struct {
	api               services.PlaylistService
	logger            *log.Logger
	itemInterval      time.Duration
	escalatedInterval time.Duration
	sleep             Sleeper
	failures          int
}

// AddResult counts the outcome of [Adder.AddAll].
type AddResult struct {
	Added  int
	Failed int
}

// NewAdder creates an [Adder].
func NewAdder(opts AdderOpts) *Adder {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	return &Adder{
		api:               opts.API,
		logger:            shared.WithLogger(logger, "component", "adder"),
		itemInterval:      opts.ItemInterval,
		escalatedInterval: opts.EscalatedInterval,
		sleep:             sleep,
	}
}

// Failures returns the number of videos that could not be added so far.
func (a *Adder) Failures() int {
	return a.failures
}

// AddVideo inserts videoID into playlistID, retrying once, and reports success.
//
// A quota rejection is only logged when the last attempt fails. The call always ends with
// the courtesy pause, which grows to the escalated interval at every fifth failure past five.
func (a *Adder) AddVideo(ctx context.Context, playlistID, videoID string) bool {
	policy := RetryPolicy{
		MaxAttempts: addAttempts,
		Backoff:     LinearBackoff(addResponseBackoff, addTransportBackoff),
		Sleep:       a.sleep,
		OnFailure: func(attempt int, err error) {
			if services.IsCanceled(err) {
				return
			}
			if services.IsQuotaExceeded(err) && attempt < addAttempts {
				return
			}
			a.logger.Warn("Failed to add video",
				"video", videoID, "attempt", attempt, "of", addAttempts,
				"reason", services.Reason(err), "error", services.Message(err))
		},
	}

	_, err := WithRetry(ctx, policy, func(ctx context.Context, _ int) error {
		_, err := a.api.InsertItem(ctx, playlistID, videoID)
		return err
	})

	ok := err == nil
	if !ok {
		a.failures++
	}

	pause := a.itemInterval
	if a.failures > escalateAfter && a.failures%escalateAfter == 0 {
		pause = a.escalatedInterval
	}
	_ = a.sleep(ctx, pause)
	return ok
}

// AddAll adds every ID in order and never stops on individual failures.
//
// onStep, when set, is called after each video. Only cancellation of ctx ends the batch early.
func (a *Adder) AddAll(ctx context.Context, playlistID string, videoIDs []string, onStep func(step int, res AddResult, videoID string)) (AddResult, error) {
	var res AddResult
	total := len(videoIDs)

	for i, id := range videoIDs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if a.AddVideo(ctx, playlistID, id) {
			res.Added++
			a.logger.Debug("Added video", "video", id)
		} else {
			res.Failed++
		}

		step := i + 1
		if step%progressEvery == 0 || step == total {
			a.logger.Info("Add progress", "processed", step, "total", total, "added", res.Added, "failed", res.Failed)
		}
		if onStep != nil {
			onStep(step, res, id)
		}
	}
	return res, ctx.Err()
}
