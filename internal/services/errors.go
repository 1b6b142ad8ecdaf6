package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ytsync/internal/shared"
	"google.golang.org/api/googleapi"
)

// Reason reported by the API when the daily quota is spent.
const ReasonQuotaExceeded = "quotaExceeded"

// LoginHint tells a CLI user how to obtain a token.
const LoginHint = "run `ytsync auth login`"

// AuthRequiredError is returned when no usable token exists.
//
// URL is where the user grants consent. It is empty when no callback is
// listening to redeem the state, in which case the user must log in first.
type AuthRequiredError struct {
	URL string
}

func (e *AuthRequiredError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%v: %s", shared.ErrNotAuthenticated, LoginHint)
	}
	return fmt.Sprintf("%v: authorize at %s", shared.ErrNotAuthenticated, e.URL)
}

func (e *AuthRequiredError) Unwrap() error {
	return shared.ErrNotAuthenticated
}

// StatusCode returns the HTTP status of an API error, or 0 when no response was received.
func StatusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// Reason returns the first error reason reported by the API, or "unknown".
func Reason(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && len(apiErr.Errors) > 0 && apiErr.Errors[0].Reason != "" {
		return apiErr.Errors[0].Reason
	}
	return "unknown"
}

// Message returns the API's error message, falling back to the status code.
func Message(err error) string {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return fmt.Sprintf("Code %d", apiErr.Code)
}

// IsNotFound reports whether the API answered 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == 404
}

// IsQuotaExceeded reports whether the API rejected the call for quota.
func IsQuotaExceeded(err error) bool {
	return Reason(err) == ReasonQuotaExceeded
}

// IsTransport reports whether err happened before any response was received.
//
// A 2xx response lacking an ID counts as a response.
func IsTransport(err error) bool {
	if err == nil || StatusCode(err) != 0 {
		return false
	}
	return !errors.Is(err, shared.ErrMissingID)
}

// IsCanceled reports whether err comes from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
