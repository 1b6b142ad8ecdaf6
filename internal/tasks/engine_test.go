package tasks

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
)

func newTestEngine(api services.PlaylistService, creds services.Credentials, buf *bytes.Buffer) *PlaylistEngine {
	logger := discardLogger()
	if buf != nil {
		logger = shared.NewLogger(buf)
	}
	return NewPlaylistEngine(EngineOpts{
		API:         api,
		Credentials: creds,
		Logger:      logger,
		Sleep:       (&sleepRecorder{}).sleep,
		State:       func() string { return "fixed-state" },
	})
}

// panicAPI blows up on the first call.
type panicAPI struct {
	*fakeAPI
}

func (p panicAPI) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	panic("boom")
}

func TestPlaylistEngine(t *testing.T) {
	t.Run("adds exactly the missing videos", func(t *testing.T) {
		api := newFakeAPI(t)
		api.addVideos("UUuploads", "a", "b", "c")
		api.playlists["PLdest"] = &models.PlaylistDescriptor{ID: "PLdest", Title: "Dest"}
		api.addVideos("PLdest", "b", "z")

		settings := testSettings()
		settings.PlaylistID = "PLdest"

		summary := newTestEngine(api, staticCredentials{valid: true}, nil).Run(context.Background(), settings, nil)
		if !summary.OK() {
			t.Fatalf("unexpected error: %v", summary.Err)
		}
		if api.insertCalls["b"] != 0 {
			t.Error("expected b not to be re-added")
		}
		if got := api.inserted("PLdest"); !slices.Equal(got, []string{"b", "z", "a", "c"}) {
			t.Errorf("expected a and c appended in source order, got %v", got)
		}

		if summary.SourceCount != 3 || summary.DestinationCount != 2 {
			t.Errorf("unexpected counts %+v", summary)
		}
		if summary.Missing != 2 || summary.Added != 2 || summary.Failed != 0 {
			t.Errorf("unexpected add counts %+v", summary)
		}
		if summary.Extras != 1 {
			t.Errorf("expected 1 extra, got %d", summary.Extras)
		}
		if summary.FinalCount != 4 || summary.Shortfall != 0 {
			t.Errorf("unexpected final count %d, shortfall %d", summary.FinalCount, summary.Shortfall)
		}
		if summary.Stage != StageDone {
			t.Errorf("expected done stage, got %s", summary.Stage)
		}
		if summary.SourcePlaylistID != "UUuploads" || summary.Destination.ID != "PLdest" {
			t.Errorf("unexpected playlists %s -> %v", summary.SourcePlaylistID, summary.Destination)
		}
	})

	t.Run("second run adds nothing", func(t *testing.T) {
		var buf bytes.Buffer
		api := newFakeAPI(t)
		api.addVideos("UUuploads", "a", "b", "c")
		engine := newTestEngine(api, staticCredentials{valid: true}, &buf)

		first := engine.Run(context.Background(), testSettings(), nil)
		if !first.OK() || first.Added != 3 {
			t.Fatalf("expected first run to add 3, got %+v", first)
		}

		buf.Reset()
		second := engine.Run(context.Background(), testSettings(), nil)
		if !second.OK() {
			t.Fatalf("unexpected error: %v", second.Err)
		}
		if second.Added != 0 || second.Missing != 0 {
			t.Errorf("expected no additions, got %+v", second)
		}
		if len(api.created) != 1 {
			t.Errorf("expected the playlist to be created once, got %d", len(api.created))
		}
		if second.Destination.ID != first.Destination.ID {
			t.Errorf("expected the same destination, got %s and %s", first.Destination.ID, second.Destination.ID)
		}
		if !strings.Contains(buf.String(), "nothing to add") {
			t.Errorf("expected nothing-to-add log, got %q", buf.String())
		}
	})

	t.Run("invalid settings stop before any call", func(t *testing.T) {
		api := newFakeAPI(t)
		settings := testSettings()
		settings.ChannelID = "not-a-channel"

		summary := newTestEngine(api, staticCredentials{valid: true}, nil).Run(context.Background(), settings, nil)
		var cfgErr *shared.ConfigError
		if !errors.As(summary.Err, &cfgErr) {
			t.Fatalf("expected config error, got %v", summary.Err)
		}
		if summary.Stage != StageValidate {
			t.Errorf("expected validate stage, got %s", summary.Stage)
		}
		if len(api.listCalls) != 0 {
			t.Error("expected no API calls")
		}
	})

	t.Run("missing token surfaces the authorization url", func(t *testing.T) {
		api := newFakeAPI(t)

		summary := newTestEngine(api, staticCredentials{}, nil).Run(context.Background(), testSettings(), nil)
		var authErr *services.AuthRequiredError
		if !errors.As(summary.Err, &authErr) {
			t.Fatalf("expected AuthRequiredError, got %v", summary.Err)
		}
		if !errors.Is(summary.Err, shared.ErrNotAuthenticated) {
			t.Error("expected ErrNotAuthenticated in chain")
		}
		if !strings.Contains(summary.AuthURL, "state=fixed-state") {
			t.Errorf("unexpected auth url %q", summary.AuthURL)
		}
		if len(api.listCalls) != 0 {
			t.Error("expected no API calls")
		}
	})

	t.Run("missing token without a state issuer surfaces no url", func(t *testing.T) {
		api := newFakeAPI(t)
		engine := NewPlaylistEngine(EngineOpts{
			API:         api,
			Credentials: staticCredentials{},
			Logger:      discardLogger(),
			Sleep:       (&sleepRecorder{}).sleep,
		})

		summary := engine.Run(context.Background(), testSettings(), nil)
		if !errors.Is(summary.Err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", summary.Err)
		}
		if summary.AuthURL != "" {
			t.Errorf("expected no auth url, got %q", summary.AuthURL)
		}
		if !strings.Contains(summary.Error, "ytsync auth login") {
			t.Errorf("expected login hint, got %q", summary.Error)
		}
	})

	t.Run("unknown channel fails the run", func(t *testing.T) {
		api := newFakeAPI(t)
		delete(api.uploads, testChannelID)

		summary := newTestEngine(api, staticCredentials{valid: true}, nil).Run(context.Background(), testSettings(), nil)
		if !errors.Is(summary.Err, shared.ErrChannelNotFound) {
			t.Errorf("expected ErrChannelNotFound, got %v", summary.Err)
		}
		if summary.Error == "" {
			t.Error("expected error text in summary")
		}
		if summary.Stage != StageResolveSourceUploads {
			t.Errorf("expected failure at resolve_source_uploads, got %s", summary.Stage)
		}
	})

	t.Run("reports a shortfall without failing", func(t *testing.T) {
		var buf bytes.Buffer
		api := newFakeAPI(t)
		api.addVideos("UUuploads", "a", "b")
		api.insertErr = func(videoID string, call int) error {
			if videoID == "b" {
				return apiError(403, services.ReasonQuotaExceeded)
			}
			return nil
		}

		summary := newTestEngine(api, staticCredentials{valid: true}, &buf).Run(context.Background(), testSettings(), nil)
		if !summary.OK() {
			t.Fatalf("unexpected error: %v", summary.Err)
		}
		if summary.Added != 1 || summary.Failed != 1 {
			t.Errorf("unexpected counts %+v", summary)
		}
		if summary.Shortfall != 1 {
			t.Errorf("expected shortfall of 1, got %d", summary.Shortfall)
		}
		if !strings.Contains(buf.String(), "1 videos could not be added") {
			t.Errorf("expected failure warning, got %q", buf.String())
		}
	})

	t.Run("count failure reads as zero", func(t *testing.T) {
		api := newFakeAPI(t)
		api.addVideos("UUuploads", "a")
		api.countErr = apiError(500, "")

		summary := newTestEngine(api, staticCredentials{valid: true}, nil).Run(context.Background(), testSettings(), nil)
		if !summary.OK() {
			t.Fatalf("unexpected error: %v", summary.Err)
		}
		if summary.FinalCount != 0 || summary.Shortfall != 1 {
			t.Errorf("expected final count 0 and shortfall 1, got %d and %d", summary.FinalCount, summary.Shortfall)
		}
	})

	t.Run("recovers from panics", func(t *testing.T) {
		api := panicAPI{newFakeAPI(t)}

		summary := newTestEngine(api, staticCredentials{valid: true}, nil).Run(context.Background(), testSettings(), nil)
		if summary.Err == nil || !strings.Contains(summary.Err.Error(), "boom") {
			t.Errorf("expected recovered panic, got %v", summary.Err)
		}
		if summary.FinishedAt.IsZero() {
			t.Error("expected finish time")
		}
	})

	t.Run("sends progress without blocking", func(t *testing.T) {
		api := newFakeAPI(t)
		api.addVideos("UUuploads", "a", "b")

		progress := make(chan ProgressUpdate, 64)
		summary := newTestEngine(api, staticCredentials{valid: true}, nil).Run(context.Background(), testSettings(), progress)
		close(progress)

		var stages []Stage
		var last ProgressUpdate
		for u := range progress {
			stages = append(stages, u.Stage)
			last = u
		}
		if last.Stage != StageDone || last.Data != summary {
			t.Errorf("expected final done update carrying the summary, got %+v", last)
		}
		for _, want := range []Stage{StageValidate, StageAuthenticate, StageListSource, StageAdd, StageSummarize} {
			if !slices.Contains(stages, want) {
				t.Errorf("expected an update for %s", want)
			}
		}

		unbuffered := make(chan ProgressUpdate)
		if s := newTestEngine(api, staticCredentials{valid: true}, nil).Run(context.Background(), testSettings(), unbuffered); !s.OK() {
			t.Errorf("unexpected error with an unread channel: %v", s.Err)
		}
	})
}

func TestStage(t *testing.T) {
	if StageListDestination.String() != "list_destination" {
		t.Errorf("unexpected name %q", StageListDestination.String())
	}
	text, _ := StageDone.MarshalText()
	if string(text) != "done" {
		t.Errorf("unexpected text %q", text)
	}
	if Stage(99).String() != "" {
		t.Error("expected empty name for unknown stage")
	}
}
