package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrTokenNotFound    = fmt.Errorf("token not found")
	ErrInvalidState     = fmt.Errorf("invalid state parameter")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrChannelNotFound  = fmt.Errorf("channel not found")
	ErrUploadsNotFound  = fmt.Errorf("uploads playlist not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrPlaylistCreate   = fmt.Errorf("playlist creation failed")
	ErrMissingID        = fmt.Errorf("response has no resource id")
	ErrQuotaExceeded    = fmt.Errorf("quota exceeded")

	// Run errors
	ErrSyncInProgress = fmt.Errorf("sync already in progress")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
