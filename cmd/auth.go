package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/ytsync/internal/server"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const (
	authTimeout     = 2 * time.Minute
	shutdownTimeout = 5 * time.Second
)

// AuthLogin performs the OAuth2 authorization-code flow.
//
// Starts a local HTTP server for the callback, opens the browser for consent,
// and stores the exchanged token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials()
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, creds, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	if !token.Expiry.IsZero() {
		r.writePlain("✓ Token stored in %s (expires %s)\n", r.config.Database.Path, token.Expiry.Format(time.RFC3339))
	} else {
		r.writePlain("✓ Token stored in %s\n", r.config.Database.Path)
	}
	r.writePlain("\nYou can now run: ytsync sync\n")
	return nil
}

// AuthStatus reports whether a usable token is stored.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials()
	if err != nil {
		return err
	}

	authenticated := creds.HasValidToken(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"authenticated": authenticated}, false)
	}

	if authenticated {
		return r.writePlain("Authentication: ✓ Authenticated\n")
	}
	r.writePlain("Authentication: ✗ Not authenticated\n")
	return r.writePlain("Run `ytsync auth login` to authorize.\n")
}

// AuthLogout deletes the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials()
	if err != nil {
		return err
	}

	if err := creds.Revoke(); err != nil {
		if errors.Is(err, shared.ErrTokenNotFound) {
			return r.writePlain("No stored token\n")
		}
		return fmt.Errorf("failed to remove token: %w", err)
	}

	r.logger.Info("token removed")
	return r.writePlain("✓ Logged out\n")
}

// doOAuth serves the callback route until one authorization completes or the timeout expires.
func (r *Runner) doOAuth(ctx context.Context, creds Credentials, openBrowser bool) (*oauth2.Token, error) {
	states := server.NewStateStore()
	oauthHandler := server.NewOAuthHandler(creds, states, r.logger)
	router := server.NewBasicRouter()
	router.Use(server.RecoverMiddleware(r.logger))
	router.Handler(oauthHandler)

	serverAddr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	listener, err := net.Listen("tcp", serverAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", serverAddr, err)
	}

	httpServer := &http.Server{Handler: router}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := creds.AuthorizationURL(states.Issue())
	if openBrowser {
		r.writePlain("→ Opening browser for YouTube authorization...\n")
	}
	if !openBrowser || shared.OpenBrowser(authURL) != nil {
		r.writePlainln("Please open this URL in your browser:")
		r.writePlain("%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
