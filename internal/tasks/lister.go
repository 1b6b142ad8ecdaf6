package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
)

const (
	MaxPages = 200 // page ceiling of a single listing

	listAttempts         = 3
	listResponseBackoff  = 1500 * time.Millisecond
	listTransportBackoff = 2000 * time.Millisecond
)

// ListerOpts configures a [Lister].
type ListerOpts struct {
	API          services.PlaylistService
	Logger       *log.Logger
	PageInterval time.Duration // pause between pages
	MaxPages     int           // defaults to [MaxPages]
	Sleep        Sleeper       // retry backoff and page pauses
}

// Lister walks every page of a playlist and collects the IDs of its available videos.
type Lister struct {
	api          services.PlaylistService
	logger       *log.Logger
	pageInterval time.Duration
	maxPages     int
	sleep        Sleeper
}

// NewLister creates a [Lister].
func NewLister(opts ListerOpts) *Lister {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = MaxPages
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	return &Lister{
		api:          opts.API,
		logger:       shared.WithLogger(logger, "component", "lister"),
		pageInterval: opts.PageInterval,
		maxPages:     maxPages,
		sleep:        sleep,
	}
}

// ListAllVideoIDs returns the eligible video IDs of playlistID without duplicates.
//
// Listing is best effort: a page that keeps failing, or a playlist that disappears
// mid-scan, ends the walk and the IDs gathered so far are returned without error.
// Only cancellation of ctx is reported as an error, along with the partial set.
func (l *Lister) ListAllVideoIDs(ctx context.Context, playlistID string) (*models.VideoIDSet, error) {
	ids := models.NewVideoIDSet()
	logger := shared.WithLogger(l.logger, "playlist", playlistID)

	var (
		pageToken string
		processed int
		pages     int
	)

	for {
		if pages >= l.maxPages {
			logger.Warn("Page limit reached, listing may be incomplete", "pages", pages)
			break
		}

		var page *models.ItemPage
		policy := RetryPolicy{
			MaxAttempts: listAttempts,
			Backoff:     LinearBackoff(listResponseBackoff, listTransportBackoff),
			IsTerminal:  services.IsNotFound,
			Sleep:       l.sleep,
			OnFailure: func(attempt int, err error) {
				if services.IsNotFound(err) {
					return
				}
				logger.Warn("Failed to fetch page",
					"page", pages+1, "attempt", attempt, "of", listAttempts,
					"status", services.StatusCode(err), "error", services.Message(err))
			},
		}

		_, err := WithRetry(ctx, policy, func(ctx context.Context, _ int) error {
			var err error
			page, err = l.api.ListItems(ctx, playlistID, pageToken)
			return err
		})

		switch {
		case err == nil:
		case services.IsCanceled(err):
			return ids, err
		case services.IsNotFound(err):
			logger.Warn("Playlist not found, returning partial results", "unique", ids.Len())
			return ids, nil
		default:
			logger.Error("Giving up on listing after repeated failures", "page", pages+1, "unique", ids.Len())
			return ids, nil
		}

		pages++
		for _, item := range page.Items {
			processed++
			if !item.Eligible() {
				if item.Unavailable() {
					logger.Debug("Skipping unavailable video", "video", item.VideoID, "title", item.Title)
				}
				continue
			}
			ids.Add(item.VideoID)
		}
		logger.Debug("Fetched page", "page", pages, "processed", processed, "unique", ids.Len())

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken

		if l.pageInterval > 0 {
			if err := l.sleep(ctx, l.pageInterval); err != nil {
				return ids, err
			}
		}
	}

	logger.Info("Listing complete", "pages", pages, "processed", processed, "unique", ids.Len())
	return ids, nil
}
