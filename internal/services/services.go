// package services defines the remote platform client and the credentials it runs with
package services

import (
	"context"

	"github.com/desertthunder/ytsync/internal/models"
	"golang.org/x/oauth2"
)

// PageSize is the maxResults sent with every paginated listing.
const PageSize = 50

// PlaylistService is the subset of the YouTube Data API the synchronizer needs.
type PlaylistService interface {
	// UploadsPlaylistID returns the platform-managed uploads playlist of a channel.
	UploadsPlaylistID(ctx context.Context, channelID string) (string, error)

	// GetPlaylist fetches the descriptor of a playlist by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistDescriptor, error)

	// ListMyPlaylists returns one page of the authenticated user's playlists.
	ListMyPlaylists(ctx context.Context, pageToken string) (*models.PlaylistPage, error)

	// CreatePlaylist creates a playlist owned by the authenticated user.
	CreatePlaylist(ctx context.Context, title, description, privacy string) (*models.PlaylistDescriptor, error)

	// ListItems returns one page of a playlist's items.
	ListItems(ctx context.Context, playlistID, pageToken string) (*models.ItemPage, error)

	// InsertItem appends a video to a playlist and returns the new item's ID.
	InsertItem(ctx context.Context, playlistID, videoID string) (string, error)

	// CountItems returns the platform-reported number of items in a playlist.
	CountItems(ctx context.Context, playlistID string) (int64, error)
}

// Credentials supplies bearer tokens for API calls.
//
// Implementations are constructed once and passed to everything that talks to the network.
type Credentials interface {
	// HasValidToken reports whether a usable (or refreshable) token is available.
	HasValidToken(ctx context.Context) bool

	// Token returns a valid access token, refreshing it when needed.
	Token(ctx context.Context) (*oauth2.Token, error)

	// AuthorizationURL returns the consent URL for the one-time authorization step.
	AuthorizationURL(state string) string
}

// TokenStore persists OAuth tokens between runs.
type TokenStore interface {
	FindByProvider(provider string) (*models.Token, error)
	Upsert(token *models.Token) error
	Delete(id string) error
}
