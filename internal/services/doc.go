// Package services implements the remote side of a sync: the YouTube Data API v3 client and OAuth2 credentials.
//
// # Playlist Service
//
// [PlaylistService] is the small surface the sync engine depends on. [YouTubeService] implements it on top of
// google.golang.org/api/youtube/v3; tests point it at an [httptest.Server] with option.WithEndpoint.
//
// # Credentials
//
// [Credentials] is passed explicitly to anything that needs network access.
// [OAuthCredentials] implements it with an authorization-code flow against Google's endpoint, requesting offline
// access with forced consent so a refresh token is always issued. Tokens live in a [TokenStore]
// (repositories.TokenRepository) and are refreshed transparently; refreshed tokens are written back.
//
// The HTTP client built by [NewAuthorizedYouTubeService] asks the credentials for a token before every request.
//
// # Error Handling
//
// API failures surface as *googleapi.Error wrapped with sentinel errors from the shared package:
//   - [shared.ErrChannelNotFound] : channel lookup returned no items
//   - [shared.ErrUploadsNotFound] : channel has no uploads playlist
//   - [shared.ErrPlaylistNotFound] : playlist lookup returned no items
//   - [shared.ErrPlaylistCreate] : insert failed or returned no ID
//   - [shared.ErrMissingID] : a 2xx response without a resource ID
//
// [StatusCode], [Reason], [IsNotFound], [IsQuotaExceeded] and [IsTransport] classify errors for retry decisions.
package services
