package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/repositories"
	"github.com/desertthunder/ytsync/internal/server"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// Credentials is everything the commands need from the credential provider.
type Credentials interface {
	server.Credentials
	Revoke() error
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Collaborators that touch the network or the token store are built on first use,
// so commands like `config init` work without credentials.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer

	db     *sql.DB
	creds  Credentials
	api    services.PlaylistService
	engine tasks.SyncEngine
	states *server.StateStore // set while a callback can redeem engine-issued states
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	Logger      *log.Logger
	Output      io.Writer
	Credentials Credentials
	API         services.PlaylistService
	Engine      tasks.SyncEngine
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
		creds:  opts.Credentials,
		api:    opts.API,
		engine: opts.Engine,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, authCommand, serveCommand, configCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setup loads the environment and configuration before any command runs.
//
// An injected config is kept unless --config is given explicitly. A missing file
// falls back to the defaults so `config init` can create it.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	switch {
	case cmd.Bool("verbose"):
		shared.SetLogLevel(r.logger, log.DebugLevel)
	case cmd.Bool("quiet"):
		shared.SetLogLevel(r.logger, log.WarnLevel)
	}

	if err := shared.LoadEnv(cmd.StringSlice("env-file")...); err != nil {
		return ctx, err
	}

	if r.config != nil && !cmd.IsSet("config") {
		r.config.ApplyEnv()
		return ctx, nil
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	switch {
	case err == nil:
		r.logger.Debug("loaded config", "path", path)
	case errors.Is(err, fs.ErrNotExist):
		if cmd.IsSet("config") {
			r.logger.Warn("config file not found, using defaults", "path", path)
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
		config = shared.DefaultConfig()
	default:
		return ctx, shared.NewConfigError("config", fmt.Sprintf("check %s or run `ytsync config init`", path), err)
	}

	config.ApplyEnv()
	r.config = config
	return ctx, nil
}

// teardown releases the token store.
func (r *Runner) teardown(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// database opens the token store once per process.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// credentials builds the OAuth credential provider backed by the token store.
func (r *Runner) credentials() (Credentials, error) {
	if r.creds != nil {
		return r.creds, nil
	}
	if err := r.config.ValidateCredentials(); err != nil {
		return nil, err
	}

	yt := r.config.Credentials.YouTube
	oauthConfig, err := services.NewOAuthConfig(yt.ClientID, yt.ClientSecret, yt.RedirectURL)
	if err != nil {
		return nil, err
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	r.creds = services.NewOAuthCredentials(oauthConfig, repositories.NewTokenRepository(db))
	return r.creds, nil
}

// syncEngine builds the playlist engine and the API client it drives.
//
// Without a state store the engine reports a missing token without an authorization URL.
func (r *Runner) syncEngine(ctx context.Context) (tasks.SyncEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	creds, err := r.credentials()
	if err != nil {
		return nil, err
	}

	if r.api == nil {
		api, err := services.NewAuthorizedYouTubeService(ctx, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube client: %w", err)
		}
		r.api = api
	}

	opts := tasks.DefaultEngineOpts(r.config.Sync)
	opts.API = r.api
	opts.Credentials = creds
	opts.Logger = r.logger
	if r.states != nil {
		opts.State = r.states.Issue
	}
	r.engine = tasks.NewPlaylistEngine(opts)
	return r.engine, nil
}

// SetLogger replaces the logger of the runner.
//
// The engine keeps the logger it was built with, so call this before the first sync.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
