package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// Provider is the key tokens are stored under.
const Provider = "youtube"

const defaultRedirectURL = "http://localhost:3000/oauth/callback"

// NewOAuthConfig builds the authorization-code configuration for the YouTube Data API.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) (*oauth2.Config, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if redirectURL == "" {
		redirectURL = defaultRedirectURL
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{youtube.YoutubeForceSslScope},
		Endpoint:     google.Endpoint,
	}, nil
}

// OAuthCredentials implements [Credentials] with a persisted OAuth2 token.
type OAuthCredentials struct {
	config *oauth2.Config
	store  TokenStore
	mu     sync.Mutex
}

// NewOAuthCredentials creates credentials backed by store.
func NewOAuthCredentials(config *oauth2.Config, store TokenStore) *OAuthCredentials {
	return &OAuthCredentials{config: config, store: store}
}

// Config returns the underlying OAuth2 configuration.
func (c *OAuthCredentials) Config() *oauth2.Config {
	return c.config
}

// AuthorizationURL returns the consent URL, requesting offline access and forcing the consent screen.
func (c *OAuthCredentials) AuthorizationURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// HasValidToken reports whether [OAuthCredentials.Token] would succeed.
func (c *OAuthCredentials) HasValidToken(ctx context.Context) bool {
	_, err := c.Token(ctx)
	return err == nil
}

// Token loads the stored token, refreshing and persisting it when expired.
func (c *OAuthCredentials) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, err := c.store.FindByProvider(Provider)
	if errors.Is(err, shared.ErrTokenNotFound) {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	current := &oauth2.Token{
		AccessToken:  stored.AccessToken(),
		RefreshToken: stored.RefreshToken(),
		TokenType:    stored.TokenType(),
		Expiry:       stored.Expiry(),
	}
	if current.Valid() {
		return current, nil
	}
	if current.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token expired and no refresh token", shared.ErrNotAuthenticated)
	}

	fresh, err := c.config.TokenSource(ctx, current).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if err := c.save(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Exchange trades an authorization code for a token and stores it.
func (c *OAuthCredentials) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.save(token); err != nil {
		return nil, err
	}
	return token, nil
}

// Revoke forgets the stored token so the next run requires consent again.
func (c *OAuthCredentials) Revoke() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, err := c.store.FindByProvider(Provider)
	if err != nil {
		return err
	}
	return c.store.Delete(stored.ID())
}

func (c *OAuthCredentials) save(token *oauth2.Token) error {
	record := models.NewToken(Provider, token.AccessToken, token.RefreshToken, token.TokenType, token.Expiry)
	if err := c.store.Upsert(record); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = record.RefreshToken()
	}
	return nil
}

// TokenSource adapts [Credentials] to an [oauth2.TokenSource] that asks for a token on every call.
func TokenSource(ctx context.Context, creds Credentials) oauth2.TokenSource {
	return credentialSource{ctx: ctx, creds: creds}
}

type credentialSource struct {
	ctx   context.Context
	creds Credentials
}

func (s credentialSource) Token() (*oauth2.Token, error) {
	return s.creds.Token(s.ctx)
}
