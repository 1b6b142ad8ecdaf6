package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/shared"
	"golang.org/x/oauth2"
)

// CallbackPath is where the authorization server redirects after consent.
const CallbackPath = "/oauth/callback"

const exchangeTimeout = 30 * time.Second

// Exchanger trades an authorization code for a stored token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles OAuth2 callback requests for the authorization code flow.
//
// Each state issued by the [StateStore] is redeemable once. The first outcome is also
// delivered on [OAuthHandler.Result] for callers waiting on a single login.
type OAuthHandler struct {
	exchanger  Exchanger
	states     *StateStore
	logger     *log.Logger
	resultChan chan OAuthResult
	once       sync.Once
}

// NewOAuthHandler creates a new OAuth handler that persists tokens through exchanger.
func NewOAuthHandler(exchanger Exchanger, states *StateStore, logger *log.Logger) *OAuthHandler {
	return &OAuthHandler{
		exchanger:  exchanger,
		states:     states,
		logger:     logger,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{CallbackPath}
}

// ServeHTTP validates the state, exchanges the code and renders the success or failure page.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if !h.states.Consume(query.Get("state")) {
		h.fail(w, http.StatusBadRequest, shared.ErrInvalidState)
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, query.Get("error"), query.Get("error_description"))
		h.fail(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), exchangeTimeout)
	defer cancel()

	token, err := h.exchanger.Exchange(ctx, code)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("Authorization complete")
	h.Send(OAuthResult{Token: token})
	renderPage(w, http.StatusOK, authSuccessPage)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, err error) {
	h.logger.Error("Authorization failed", "error", err)
	h.Send(OAuthResult{err: err})
	renderPage(w, status, authFailurePage)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// AuthorizeHandler redirects the browser to the consent screen with a fresh state.
type AuthorizeHandler struct {
	authURL func(state string) string
	states  *StateStore
}

// NewAuthorizeHandler creates an [AuthorizeHandler] from an authorization URL builder.
func NewAuthorizeHandler(authURL func(state string) string, states *StateStore) *AuthorizeHandler {
	return &AuthorizeHandler{authURL: authURL, states: states}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthorizeHandler) Routes() []string {
	return []string{"/authorize"}
}

func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.authURL(h.states.Issue()), http.StatusFound)
}
