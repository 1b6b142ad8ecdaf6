package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
)

// Privacy status of playlists the resolver creates.
const PrivacyPrivate = "private"

const descriptionTemplate = "PT: Playlist sincronizada automaticamente com vídeos do canal. Criada em %[1]s. / " +
	"EN: Playlist automatically synced with channel videos. Created on %[1]s. (Using name: %[2]s)"

// ResolverOpts configures a [Resolver].
type ResolverOpts struct {
	API          services.PlaylistService
	Logger       *log.Logger
	PageInterval time.Duration // pause between pages of the caller's playlists
	Sleep        Sleeper
	Now          func() time.Time
}

// Resolver turns an explicit playlist ID or a title into a concrete destination playlist.
type Resolver struct {
	api          services.PlaylistService
	logger       *log.Logger
	pageInterval time.Duration
	sleep        Sleeper
	now          func() time.Time
}

// NewResolver creates a [Resolver].
func NewResolver(opts ResolverOpts) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	return &Resolver{
		api:          opts.API,
		logger:       shared.WithLogger(logger, "component", "resolver"),
		pageInterval: opts.PageInterval,
		sleep:        sleep,
		now:          now,
	}
}

// ResolveDestination returns the playlist the run should fill.
//
// A readable explicitID wins without any search. Otherwise the caller's playlists are
// searched for an exact titlePrimary match, and a private playlist is created when none exists.
func (r *Resolver) ResolveDestination(ctx context.Context, explicitID, titlePrimary, titleSecondary string) (*models.PlaylistDescriptor, error) {
	if explicitID != "" {
		pl, err := r.api.GetPlaylist(ctx, explicitID)
		if err == nil {
			r.logger.Info("Using configured playlist", "id", pl.ID, "title", pl.Title)
			return pl, nil
		}
		if services.IsCanceled(err) {
			return nil, err
		}
		r.logger.Warn("Configured playlist is not accessible, falling back to name search",
			"id", explicitID, "error", services.Message(err))
	}

	if titlePrimary == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	found, err := r.FindByTitle(ctx, titlePrimary)
	if err != nil {
		return nil, err
	}
	if found != nil {
		r.logger.Info("Found existing playlist", "id", found.ID, "title", found.Title)
		return found, nil
	}

	return r.create(ctx, titlePrimary, titleSecondary)
}

// FindByTitle scans the caller's playlists for an exact title match, stopping at the first one.
//
// It returns nil when no playlist matches. A listing failure is returned as an error.
func (r *Resolver) FindByTitle(ctx context.Context, title string) (*models.PlaylistDescriptor, error) {
	var pageToken string
	for pages := 0; pages < MaxPages; pages++ {
		page, err := r.api.ListMyPlaylists(ctx, pageToken)
		if err != nil {
			return nil, fmt.Errorf("failed to search playlists for %q: %w", title, err)
		}

		for _, pl := range page.Playlists {
			if pl.Title == title {
				return &pl, nil
			}
		}

		if page.NextPageToken == "" {
			return nil, nil
		}
		pageToken = page.NextPageToken

		if r.pageInterval > 0 {
			if err := r.sleep(ctx, r.pageInterval); err != nil {
				return nil, err
			}
		}
	}

	r.logger.Warn("Page limit reached while searching playlists", "title", title)
	return nil, nil
}

func (r *Resolver) create(ctx context.Context, titlePrimary, titleSecondary string) (*models.PlaylistDescriptor, error) {
	description := Description(r.now(), titleSecondary)

	r.logger.Info("Creating playlist", "title", titlePrimary)
	pl, err := r.api.CreatePlaylist(ctx, titlePrimary, description, PrivacyPrivate)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Created playlist", "id", pl.ID, "title", titlePrimary)
	return pl, nil
}

// Description renders the bilingual description of a created playlist.
func Description(created time.Time, titleSecondary string) string {
	return fmt.Sprintf(descriptionTemplate, created.Format(time.DateOnly), titleSecondary)
}
