package server

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	"golang.org/x/time/rate"
)

// Default request budget of the HTTP surface.
const (
	RequestInterval = time.Second
	RequestBurst    = 10
)

// App bundles the handlers served by `ytsync serve`.
type App struct {
	Router *BasicRouter
	Sync   *SyncHandler
	OAuth  *OAuthHandler
	States *StateStore
}

// Credentials is what the HTTP surface needs from the credential provider.
type Credentials interface {
	services.Credentials
	Exchanger
}

// AppOpts configures [NewApp].
type AppOpts struct {
	Context     context.Context
	Engine      tasks.SyncEngine
	Credentials Credentials
	Settings    shared.SyncSettings
	Logger      *log.Logger

	// States is shared with whatever else surfaces authorization URLs, such as the engine.
	States *StateStore
	// Limiter defaults to one request per [RequestInterval] with a burst of [RequestBurst].
	Limiter *rate.Limiter
}

// NewApp wires every handler onto one router with logging, panic recovery and rate limiting.
func NewApp(opts AppOpts) *App {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	logger := shared.WithLogger(opts.Logger, "component", "server")
	states := opts.States
	if states == nil {
		states = NewStateStore()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(RequestInterval), RequestBurst)
	}

	syncHandler := NewSyncHandler(SyncHandlerOpts{
		Context:     opts.Context,
		Engine:      opts.Engine,
		Credentials: opts.Credentials,
		Settings:    opts.Settings,
		States:      states,
		Logger:      logger,
	})
	oauthHandler := NewOAuthHandler(opts.Credentials, states, logger)

	router := NewBasicRouter()
	router.Use(RecoverMiddleware(logger), LoggingMiddleware(logger), RateLimitMiddleware(limiter))
	router.Handler(syncHandler)
	router.Handler(NewStatusHandler(syncHandler))
	router.Handler(NewAuthorizeHandler(opts.Credentials.AuthorizationURL, states))
	router.Handler(oauthHandler)

	return &App{Router: router, Sync: syncHandler, OAuth: oauthHandler, States: states}
}
