// YouTube Data API v3 implementation of [PlaylistService]
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeService implements [PlaylistService] with the generated YouTube client.
type YouTubeService struct {
	svc *youtube.Service
}

var _ PlaylistService = (*YouTubeService)(nil)

// NewYouTubeService creates a service from raw client options.
func NewYouTubeService(ctx context.Context, opts ...option.ClientOption) (*YouTubeService, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}
	return &YouTubeService{svc: svc}, nil
}

// NewAuthorizedYouTubeService creates a service whose requests carry tokens from creds.
//
// Options in opts are applied after the authorized client and may replace it.
func NewAuthorizedYouTubeService(ctx context.Context, creds Credentials, opts ...option.ClientOption) (*YouTubeService, error) {
	client := oauth2.NewClient(ctx, TokenSource(ctx, creds))
	return NewYouTubeService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
}

// UploadsPlaylistID looks up channels.list part=contentDetails for channelID.
func (s *YouTubeService) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	resp, err := s.svc.Channels.List([]string{"contentDetails"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: channel %s: %w", shared.ErrAPIRequest, channelID, err)
	}

	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: %s", shared.ErrChannelNotFound, channelID)
	}

	details := resp.Items[0].ContentDetails
	if details == nil || details.RelatedPlaylists == nil || details.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("%w: channel %s", shared.ErrUploadsNotFound, channelID)
	}

	return details.RelatedPlaylists.Uploads, nil
}

// GetPlaylist looks up playlists.list part=snippet for playlistID.
func (s *YouTubeService) GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistDescriptor, error) {
	resp, err := s.svc.Playlists.List([]string{"snippet"}).Id(playlistID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: playlist %s: %w", shared.ErrAPIRequest, playlistID, err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	return toDescriptor(resp.Items[0]), nil
}

// ListMyPlaylists returns one page of playlists.list mine=true.
func (s *YouTubeService) ListMyPlaylists(ctx context.Context, pageToken string) (*models.PlaylistPage, error) {
	call := s.svc.Playlists.List([]string{"snippet"}).Mine(true).MaxResults(PageSize).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("%w: own playlists: %w", shared.ErrAPIRequest, err)
	}

	page := &models.PlaylistPage{NextPageToken: resp.NextPageToken}
	for _, pl := range resp.Items {
		page.Playlists = append(page.Playlists, *toDescriptor(pl))
	}
	return page, nil
}

// CreatePlaylist inserts a playlist with the given title, description and privacy status.
func (s *YouTubeService) CreatePlaylist(ctx context.Context, title, description, privacy string) (*models.PlaylistDescriptor, error) {
	playlist := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       title,
			Description: description,
		},
		Status: &youtube.PlaylistStatus{PrivacyStatus: privacy},
	}

	resp, err := s.svc.Playlists.Insert([]string{"snippet", "status"}, playlist).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", shared.ErrPlaylistCreate, title, err)
	}

	if resp.Id == "" {
		return nil, fmt.Errorf("%w: %q: %w", shared.ErrPlaylistCreate, title, shared.ErrMissingID)
	}

	created := toDescriptor(resp)
	if created.Title == "" {
		created.Title = title
	}
	if created.Description == "" {
		created.Description = description
	}
	return created, nil
}

// ListItems returns one page of playlistItems.list part=snippet.
func (s *YouTubeService) ListItems(ctx context.Context, playlistID, pageToken string) (*models.ItemPage, error) {
	call := s.svc.PlaylistItems.List([]string{"snippet"}).PlaylistId(playlistID).MaxResults(PageSize).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("%w: items of %s: %w", shared.ErrAPIRequest, playlistID, err)
	}

	page := &models.ItemPage{NextPageToken: resp.NextPageToken}
	if resp.PageInfo != nil {
		page.TotalResults = resp.PageInfo.TotalResults
	}

	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		entry := models.PlaylistItem{Title: item.Snippet.Title}
		if rid := item.Snippet.ResourceId; rid != nil {
			entry.Kind = rid.Kind
			entry.VideoID = rid.VideoId
		}
		page.Items = append(page.Items, entry)
	}
	return page, nil
}

// InsertItem appends videoID to playlistID.
//
// A 2xx response without an item ID is reported as [shared.ErrMissingID].
func (s *YouTubeService) InsertItem(ctx context.Context, playlistID, videoID string) (string, error) {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: models.VideoKind, VideoId: videoID},
		},
	}

	resp, err := s.svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: insert %s: %w", shared.ErrAPIRequest, videoID, err)
	}

	if resp.Id == "" {
		return "", fmt.Errorf("insert %s: %w", videoID, shared.ErrMissingID)
	}
	return resp.Id, nil
}

// CountItems reads pageInfo.totalResults from a one-item listing.
func (s *YouTubeService) CountItems(ctx context.Context, playlistID string) (int64, error) {
	resp, err := s.svc.PlaylistItems.List([]string{"id"}).PlaylistId(playlistID).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", shared.ErrAPIRequest, playlistID, err)
	}

	if resp.PageInfo == nil {
		return 0, nil
	}
	return resp.PageInfo.TotalResults, nil
}

func toDescriptor(pl *youtube.Playlist) *models.PlaylistDescriptor {
	d := &models.PlaylistDescriptor{ID: pl.Id}
	if pl.Snippet != nil {
		d.Title = pl.Snippet.Title
		d.Description = pl.Snippet.Description
	}
	return d
}
