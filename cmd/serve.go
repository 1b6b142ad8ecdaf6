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
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const readHeaderTimeout = 10 * time.Second

// Serve runs the HTTP entry points until the context is canceled.
//
// A sync still running at shutdown is canceled and waited for.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := r.config.Server.Host
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	port := r.config.Server.Port
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	settings := r.settings(cmd)
	if err := settings.Validate(); err != nil {
		return err
	}

	creds, err := r.credentials()
	if err != nil {
		return err
	}
	if r.states == nil {
		r.states = server.NewStateStore()
	}
	engine, err := r.syncEngine(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := server.NewApp(server.AppOpts{
		Context:     ctx,
		Engine:      engine,
		Credentials: creds,
		Settings:    settings,
		Logger:      r.logger,
		States:      r.states,
	})

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.logger.Info("listening", "addr", addr, "sync", "http://"+addr+"/sync")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		r.logger.Info("shutting down")

		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		err := httpServer.Shutdown(shutdownCtx)

		cancel()
		app.Sync.Wait()
		return err
	})

	return g.Wait()
}
