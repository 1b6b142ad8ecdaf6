package tasks

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
)

// SyncEngine copies the videos of a channel into a playlist.
type SyncEngine interface {
	// Run performs one full synchronization and never panics. Failures are reported in [Summary.Err].
	Run(ctx context.Context, settings shared.SyncSettings, progress chan<- ProgressUpdate) *Summary
}

// Summary reports the outcome of a sync run.
type Summary struct {
	RunID            string                     `json:"run_id"`
	ChannelID        string                     `json:"channel_id"`
	SourcePlaylistID string                     `json:"source_playlist_id,omitempty"`
	Destination      *models.PlaylistDescriptor `json:"destination,omitempty"`
	SourceCount      int                        `json:"source_count"`
	DestinationCount int                        `json:"destination_count"` // before adding
	Missing          int                        `json:"missing"`
	Extras           int                        `json:"extras"`
	Added            int                        `json:"added"`
	Failed           int                        `json:"failed"`
	FinalCount       int64                      `json:"final_count"`
	Shortfall        int64                      `json:"shortfall"`
	AuthURL          string                     `json:"auth_url,omitempty"`
	Stage            Stage                      `json:"stage"` // last stage reached
	StartedAt        time.Time                  `json:"started_at"`
	FinishedAt       time.Time                  `json:"finished_at"`
	Error            string                     `json:"error,omitempty"`
	Err              error                      `json:"-"`
}

// OK reports whether the run got through every stage.
func (s *Summary) OK() bool {
	return s.Err == nil
}

// Duration returns how long the run took.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// EngineOpts contains the collaborators and pacing of a [PlaylistEngine].
type EngineOpts struct {
	API         services.PlaylistService
	Credentials services.Credentials
	Logger      *log.Logger

	PageInterval          time.Duration
	OwnedPageInterval     time.Duration
	ItemInterval          time.Duration
	EscalatedItemInterval time.Duration

	Sleep Sleeper          // retry backoff and per-video pauses
	Now   func() time.Time // creation date of new playlists
	State func() string    // issues OAuth states redeemable by a callback; nil means no URL is surfaced
}

// DefaultEngineOpts fills the pacing of opts from the sync configuration.
func DefaultEngineOpts(cfg shared.SyncConfig) EngineOpts {
	return EngineOpts{
		PageInterval:          cfg.PageInterval,
		OwnedPageInterval:     cfg.OwnedPageInterval,
		ItemInterval:          cfg.ItemInterval,
		EscalatedItemInterval: cfg.EscalatedItemInterval,
	}
}

// PlaylistEngine implements [SyncEngine] on top of the YouTube Data API.
type PlaylistEngine struct {
	opts   EngineOpts
	logger *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided collaborators.
func NewPlaylistEngine(opts EngineOpts) *PlaylistEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	return &PlaylistEngine{opts: opts, logger: opts.Logger}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes Validate → Authenticate → ResolveSourceUploads → ListSource → ResolveDestination
// → ListDestination → Diff → Add → Summarize. A failing stage ends the run.
func (e *PlaylistEngine) Run(ctx context.Context, settings shared.SyncSettings, progress chan<- ProgressUpdate) (summary *Summary) {
	summary = &Summary{
		RunID:     shared.GenerateID(),
		ChannelID: settings.ChannelID,
		StartedAt: time.Now(),
	}
	logger := shared.WithLogger(e.logger, "run", summary.RunID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unexpected failure", "stage", summary.Stage, "panic", r, "stack", string(debug.Stack()))
			summary.Err = fmt.Errorf("unexpected failure during %s: %v", summary.Stage, r)
		}
		if summary.Err != nil {
			summary.Error = summary.Err.Error()
		}
		summary.FinishedAt = time.Now()
		sendProgress(progress, doneUpdate(summary))
	}()

	if err := e.run(ctx, logger, settings, summary, progress); err != nil {
		summary.Err = err
		e.logFailure(logger, summary, err)
	}
	return summary
}

func (e *PlaylistEngine) run(ctx context.Context, logger *log.Logger, settings shared.SyncSettings, summary *Summary, progress chan<- ProgressUpdate) error {
	enter := func(stage Stage, message string) {
		summary.Stage = stage
		sendProgress(progress, stageUpdate(stage, message))
	}

	enter(StageValidate, "Validating settings")
	if err := settings.Validate(); err != nil {
		return err
	}

	enter(StageAuthenticate, "Checking authorization")
	if !e.opts.Credentials.HasValidToken(ctx) {
		if e.opts.State != nil {
			summary.AuthURL = e.opts.Credentials.AuthorizationURL(e.opts.State())
		}
		return &services.AuthRequiredError{URL: summary.AuthURL}
	}

	enter(StageResolveSourceUploads, "Looking up uploads playlist")
	uploads, err := e.opts.API.UploadsPlaylistID(ctx, settings.ChannelID)
	if err != nil {
		return err
	}
	summary.SourcePlaylistID = uploads
	logger.Info("Resolved uploads playlist", "channel", settings.ChannelID, "playlist", uploads)

	lister := NewLister(ListerOpts{
		API:          e.opts.API,
		Logger:       logger,
		PageInterval: e.opts.PageInterval,
		Sleep:        e.opts.Sleep,
	})

	enter(StageListSource, "Listing channel videos")
	source, err := lister.ListAllVideoIDs(ctx, uploads)
	if err != nil {
		return err
	}
	summary.SourceCount = source.Len()
	logger.Info("Videos found in channel", "count", summary.SourceCount)
	sendProgress(progress, listedUpdate(StageListSource, summary.SourceCount, uploads))

	enter(StageResolveDestination, "Resolving destination playlist")
	resolver := NewResolver(ResolverOpts{
		API:          e.opts.API,
		Logger:       logger,
		PageInterval: e.opts.OwnedPageInterval,
		Sleep:        e.opts.Sleep,
		Now:          e.opts.Now,
	})
	dest, err := resolver.ResolveDestination(ctx, settings.PlaylistID, settings.PlaylistName, settings.PlaylistNameEN)
	if err != nil {
		return err
	}
	summary.Destination = dest
	sendProgress(progress, destinationUpdate(dest.Title, dest.ID))

	enter(StageListDestination, "Listing playlist videos")
	existing, err := lister.ListAllVideoIDs(ctx, dest.ID)
	if err != nil {
		return err
	}
	summary.DestinationCount = existing.Len()
	logger.Info("Videos already in playlist", "count", summary.DestinationCount)
	sendProgress(progress, listedUpdate(StageListDestination, summary.DestinationCount, dest.ID))

	enter(StageDiff, "Comparing playlists")
	missing := source.Difference(existing)
	summary.Missing = len(missing)
	summary.Extras = len(existing.Difference(source))
	logger.Info("Compared playlists", "missing", summary.Missing, "extras", summary.Extras)
	sendProgress(progress, diffUpdate(summary.Missing, summary.Extras))

	enter(StageAdd, "Adding videos")
	if len(missing) == 0 {
		logger.Info("Playlist is up to date, nothing to add")
	} else {
		adder := NewAdder(AdderOpts{
			API:               e.opts.API,
			Logger:            logger,
			ItemInterval:      e.opts.ItemInterval,
			EscalatedInterval: e.opts.EscalatedItemInterval,
			Sleep:             e.opts.Sleep,
		})

		res, err := adder.AddAll(ctx, dest.ID, missing, func(step int, res AddResult, videoID string) {
			sendProgress(progress, addUpdate(step, len(missing), res.Added, res.Failed, videoID))
		})
		summary.Added, summary.Failed = res.Added, res.Failed
		if err != nil {
			return err
		}

		logger.Info("Finished adding videos", "added", summary.Added, "failed", summary.Failed)
		if summary.Failed > 0 {
			logger.Warn(fmt.Sprintf("%d videos could not be added", summary.Failed))
		}
	}

	enter(StageSummarize, "Counting playlist items")
	count, err := e.opts.API.CountItems(ctx, dest.ID)
	if err != nil {
		logger.Warn("Could not count playlist items", "error", services.Message(err))
		count = 0
	}
	summary.FinalCount = count

	logger.Info("Sync complete",
		"source", summary.SourceCount, "destination", summary.FinalCount,
		"added", summary.Added, "failed", summary.Failed, "extras", summary.Extras)

	if count < int64(summary.SourceCount) {
		summary.Shortfall = int64(summary.SourceCount) - count
		logger.Warn("Playlist has fewer videos than the channel",
			"playlist", count, "channel", summary.SourceCount, "shortfall", summary.Shortfall)
	}

	summary.Stage = StageDone
	return nil
}

func (e *PlaylistEngine) logFailure(logger *log.Logger, summary *Summary, err error) {
	var (
		cfgErr  *shared.ConfigError
		authErr *services.AuthRequiredError
	)
	switch {
	case errors.As(err, &cfgErr):
		logger.Error("Configuration error", "key", cfgErr.Key, "hint", cfgErr.Hint)
	case errors.As(err, &authErr):
		logger.Error("Authorization required, open this URL and run again", "url", authErr.URL)
	case services.IsCanceled(err):
		logger.Warn("Sync canceled", "stage", summary.Stage)
	default:
		logger.Error("Sync failed", "stage", summary.Stage, "error", err)
	}
}
