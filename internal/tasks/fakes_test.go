package tasks

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

const testChannelID = "UCabcdefghijklmnopqrstuv"

func discardLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func testSettings() shared.SyncSettings {
	return shared.SyncSettings{
		ChannelID:      testChannelID,
		PlaylistName:   "Minha Playlist",
		PlaylistNameEN: "My Playlist",
		ClientID:       "client",
		ClientSecret:   "secret",
	}
}

func apiError(code int, reason string) error {
	err := &googleapi.Error{Code: code, Message: "status " + strconv.Itoa(code)}
	if reason != "" {
		err.Errors = []googleapi.ErrorItem{{Reason: reason, Message: reason}}
	}
	return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
}

// sleepRecorder is a [Sleeper] that returns immediately.
type sleepRecorder struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations = append(r.durations, d)
	return ctx.Err()
}

func (r *sleepRecorder) count(d time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.durations {
		if got == d {
			n++
		}
	}
	return n
}

// fakeAPI is an in-memory [services.PlaylistService].
//
// Playlists in items are paged by pageSize with tokens "p1", "p2", ...
type fakeAPI struct {
	t *testing.T

	uploads   map[string]string
	playlists map[string]*models.PlaylistDescriptor
	items     map[string][]models.PlaylistItem
	own       []models.PlaylistDescriptor
	pageSize  int

	// Hooks return a non-nil error to fail a call.
	listErr   func(playlistID, pageToken string, call int) error
	insertErr func(videoID string, call int) error
	ownErr    func(pageToken string) error
	countErr  error

	endlessPages bool // every item page carries a next token
	noSearch     bool // fail the test if own playlists are listed
	noCreate     bool // fail the test if a playlist is created

	listCalls   map[string]int
	insertCalls map[string]int
	ownCalls    int
	created     []models.PlaylistDescriptor
	createdDesc []string
	createdPriv []string
	nextID      int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{
		t:           t,
		uploads:     map[string]string{testChannelID: "UUuploads"},
		playlists:   map[string]*models.PlaylistDescriptor{},
		items:       map[string][]models.PlaylistItem{},
		pageSize:    50,
		listCalls:   map[string]int{},
		insertCalls: map[string]int{},
	}
}

func (f *fakeAPI) addVideos(playlistID string, ids ...string) {
	for _, id := range ids {
		f.items[playlistID] = append(f.items[playlistID], models.PlaylistItem{
			VideoID: id,
			Title:   "video " + id,
			Kind:    models.VideoKind,
		})
	}
}

func (f *fakeAPI) inserted(playlistID string) []string {
	var ids []string
	for _, item := range f.items[playlistID] {
		ids = append(ids, item.VideoID)
	}
	return ids
}

func (f *fakeAPI) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	id, ok := f.uploads[channelID]
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrChannelNotFound, channelID)
	}
	return id, nil
}

func (f *fakeAPI) GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistDescriptor, error) {
	pl, ok := f.playlists[playlistID]
	if !ok {
		return nil, apiError(404, "playlistNotFound")
	}
	return pl, nil
}

func (f *fakeAPI) ListMyPlaylists(ctx context.Context, pageToken string) (*models.PlaylistPage, error) {
	if f.noSearch {
		f.t.Fatalf("unexpected playlist search")
	}
	f.ownCalls++
	if f.ownErr != nil {
		if err := f.ownErr(pageToken); err != nil {
			return nil, err
		}
	}

	start := pageIndex(pageToken) * f.pageSize
	end := min(start+f.pageSize, len(f.own))
	page := &models.PlaylistPage{}
	if start < len(f.own) {
		page.Playlists = append(page.Playlists, f.own[start:end]...)
	}
	if end < len(f.own) {
		page.NextPageToken = "p" + strconv.Itoa(pageIndex(pageToken)+1)
	}
	return page, nil
}

func (f *fakeAPI) CreatePlaylist(ctx context.Context, title, description, privacy string) (*models.PlaylistDescriptor, error) {
	if f.noCreate {
		f.t.Fatalf("unexpected playlist creation")
	}
	f.nextID++
	pl := &models.PlaylistDescriptor{ID: "PLcreated" + strconv.Itoa(f.nextID), Title: title, Description: description}
	f.playlists[pl.ID] = pl
	f.own = append(f.own, *pl)
	f.created = append(f.created, *pl)
	f.createdDesc = append(f.createdDesc, description)
	f.createdPriv = append(f.createdPriv, privacy)
	return pl, nil
}

func (f *fakeAPI) ListItems(ctx context.Context, playlistID, pageToken string) (*models.ItemPage, error) {
	key := playlistID + "/" + pageToken
	f.listCalls[key]++
	if f.listErr != nil {
		if err := f.listErr(playlistID, pageToken, f.listCalls[key]); err != nil {
			return nil, err
		}
	}

	idx := pageIndex(pageToken)
	all := f.items[playlistID]
	start := min(idx*f.pageSize, len(all))
	end := min(start+f.pageSize, len(all))

	page := &models.ItemPage{TotalResults: int64(len(all))}
	page.Items = append(page.Items, all[start:end]...)
	if end < len(all) || f.endlessPages {
		page.NextPageToken = "p" + strconv.Itoa(idx+1)
	}
	return page, nil
}

func (f *fakeAPI) InsertItem(ctx context.Context, playlistID, videoID string) (string, error) {
	f.insertCalls[videoID]++
	if f.insertErr != nil {
		if err := f.insertErr(videoID, f.insertCalls[videoID]); err != nil {
			return "", err
		}
	}
	f.addVideos(playlistID, videoID)
	return "item-" + videoID, nil
}

func (f *fakeAPI) CountItems(ctx context.Context, playlistID string) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.items[playlistID])), nil
}

func (f *fakeAPI) totalListCalls(playlistID string) int {
	n := 0
	for key, c := range f.listCalls {
		if len(key) > len(playlistID) && key[:len(playlistID)+1] == playlistID+"/" {
			n += c
		}
	}
	return n
}

func pageIndex(token string) int {
	if token == "" {
		return 0
	}
	n, _ := strconv.Atoi(token[1:])
	return n
}

// staticCredentials reports a fixed token state.
type staticCredentials struct {
	valid bool
}

func (c staticCredentials) HasValidToken(ctx context.Context) bool { return c.valid }
func (c staticCredentials) AuthorizationURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}
func (c staticCredentials) Token(ctx context.Context) (*oauth2.Token, error) {
	if !c.valid {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: "token"}, nil
}
