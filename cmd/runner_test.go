package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytsync/internal/server"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	tu "github.com/desertthunder/ytsync/internal/testing"
)

const testChannelID = "UCabcdefghijklmnopqrstuv"

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	cfg := shared.DefaultConfig()
	cfg.Sync.ChannelID = testChannelID
	cfg.Credentials.YouTube.ClientID = "client-id"
	cfg.Credentials.YouTube.ClientSecret = "secret-value"
	cfg.Database.Path = filepath.Join(t.TempDir(), "ytsync.db")
	return cfg
}

type testRunner struct {
	*Runner
	out    *bytes.Buffer
	engine *tu.MockEngine
	creds  *tu.MockCredentials
}

func newTestRunner(t *testing.T, cfg *shared.Config) *testRunner {
	t.Helper()
	out := &bytes.Buffer{}
	engine := &tu.MockEngine{}
	creds := &tu.MockCredentials{Valid: true}
	r := NewRunner(RunnerOpts{
		Config:      cfg,
		Logger:      shared.NewLogger(&bytes.Buffer{}),
		Output:      out,
		Credentials: creds,
		Engine:      engine,
	})
	return &testRunner{Runner: r, out: out, engine: engine, creds: creds}
}

func (tr *testRunner) run(args ...string) error {
	return rootCommand(tr.Runner).Run(context.Background(), append([]string{"ytsync"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			creds := &tu.MockCredentials{}
			engine := &tu.MockEngine{}

			runner := NewRunner(RunnerOpts{
				Config:      config,
				Logger:      logger,
				Output:      output,
				Credentials: creds,
				Engine:      engine,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.creds != creds {
				t.Error("expected credentials to be set")
			}
			if runner.engine != engine {
				t.Error("expected engine to be set")
			}
		})

		t.Run("with nil logger and output uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for _, cmd := range commands {
			names[cmd.Name] = true
		}
		for _, want := range []string{"sync", "auth", "serve", "config", "setup"} {
			if !names[want] {
				t.Errorf("expected command %q to be registered", want)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact", func(t *testing.T) {
			out := &bytes.Buffer{}
			r := NewRunner(RunnerOpts{Output: out})

			if err := r.writeJSON(map[string]int{"added": 3}, false); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := out.String(); got != "{\"added\":3}\n" {
				t.Errorf("got %q", got)
			}
		})

		t.Run("pretty", func(t *testing.T) {
			out := &bytes.Buffer{}
			r := NewRunner(RunnerOpts{Output: out})

			if err := r.writeJSON(map[string]int{"added": 3}, true); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out.String(), "\n  \"added\": 3\n") {
				t.Errorf("expected indented output, got %q", out.String())
			}
		})

		t.Run("write failure", func(t *testing.T) {
			r := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := r.writeJSON(map[string]int{"added": 3}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("newline failure", func(t *testing.T) {
			w := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			r := NewRunner(RunnerOpts{Output: &w})

			err := r.writeJSON(map[string]int{"added": 3}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})

		t.Run("unmarshalable value", func(t *testing.T) {
			r := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := r.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Output: out})

		r.writePlain("a %d\n", 1)
		r.writePlainln("b")
		r.writePlainHeader("Title")

		got := out.String()
		if !strings.HasPrefix(got, "a 1\n\nb\n") {
			t.Errorf("unexpected output %q", got)
		}
		if !strings.Contains(got, "Title\n") {
			t.Errorf("expected header title, got %q", got)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("loads the file named by --config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		data := fmt.Sprintf("[sync]\nchannel_id = %q\n", testChannelID)
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}

		tr := newTestRunner(t, nil)
		if err := tr.run("--config", path, "config", "show"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr.config.Sync.ChannelID != testChannelID {
			t.Errorf("expected channel from file, got %q", tr.config.Sync.ChannelID)
		}
		if tr.config.Sync.PlaylistName != shared.DefaultPlaylistName {
			t.Errorf("expected default playlist name, got %q", tr.config.Sync.PlaylistName)
		}
	})

	t.Run("missing config falls back to defaults", func(t *testing.T) {
		tr := newTestRunner(t, nil)

		if err := tr.run("--config", filepath.Join(t.TempDir(), "missing.toml"), "config", "show"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr.config.Sync.PlaylistNameEN != shared.DefaultPlaylistNameEN {
			t.Errorf("expected defaults, got %+v", tr.config.Sync)
		}
	})

	t.Run("malformed config is a config error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[sync\nchannel_id = 1"), 0o644); err != nil {
			t.Fatal(err)
		}
		tr := newTestRunner(t, nil)

		err := tr.run("--config", path, "config", "show")

		var configErr *shared.ConfigError
		if !errors.As(err, &configErr) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
		if exitCode(err) != exitConfig {
			t.Errorf("expected exit code %d, got %d", exitConfig, exitCode(err))
		}
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("YTSYNC_PLAYLIST_NAME", "From Env")
		tr := newTestRunner(t, testConfig(t))

		if err := tr.run("config", "show"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr.config.Sync.PlaylistName != "From Env" {
			t.Errorf("expected env override, got %q", tr.config.Sync.PlaylistName)
		}
	})

	t.Run("loads env files", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), "test.env")
		if err := os.WriteFile(envPath, []byte("YTSYNC_PLAYLIST_ID=PLfromenvfile\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Unsetenv("YTSYNC_PLAYLIST_ID") })

		tr := newTestRunner(t, testConfig(t))
		if err := tr.run("--env-file", envPath, "config", "show"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr.config.Sync.PlaylistID != "PLfromenvfile" {
			t.Errorf("expected playlist id from env file, got %q", tr.config.Sync.PlaylistID)
		}
	})
}

func TestSync(t *testing.T) {
	t.Run("prints the summary", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))
		tr.engine.Summary = &tasks.Summary{ChannelID: testChannelID, SourceCount: 12, Added: 4, Stage: tasks.StageDone}

		if err := tr.run("sync"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := tr.out.String()
		if !strings.Contains(out, "Sync complete") {
			t.Errorf("expected success title, got %q", out)
		}
		if !strings.Contains(out, "12") {
			t.Errorf("expected source count, got %q", out)
		}
	})

	t.Run("root command syncs without arguments", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))

		if err := tr.run(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tr.engine.Calls()) != 1 {
			t.Errorf("expected one run, got %d", len(tr.engine.Calls()))
		}
	})

	t.Run("flags override configuration", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))
		other := "UCzyxwvutsrqponmlkjihgfe"

		err := tr.run("sync", "--channel-id", other, "--playlist-id", "PLexplicit", "--playlist-name", "Nome", "--playlist-name-en", "Name")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		calls := tr.engine.Calls()
		if len(calls) != 1 {
			t.Fatalf("expected one run, got %d", len(calls))
		}
		got := calls[0]
		if got.ChannelID != other || got.PlaylistID != "PLexplicit" || got.PlaylistName != "Nome" || got.PlaylistNameEN != "Name" {
			t.Errorf("unexpected settings %+v", got)
		}
		if tr.config.Sync.ChannelID != testChannelID {
			t.Error("expected flags not to modify the loaded config")
		}
	})

	t.Run("invalid channel fails before running", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))

		err := tr.run("sync", "--channel-id", "not-a-channel")
		if exitCode(err) != exitConfig {
			t.Errorf("expected config exit code, got %d (%v)", exitCode(err), err)
		}
		if len(tr.engine.Calls()) != 0 {
			t.Error("expected engine not to run")
		}
	})

	t.Run("missing credentials fail before running", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Credentials.YouTube.ClientSecret = ""
		tr := newTestRunner(t, cfg)

		err := tr.run("sync")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("json output", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))
		tr.engine.Summary = &tasks.Summary{ChannelID: testChannelID, Missing: 2, Added: 2, Stage: tasks.StageDone}
		tr.engine.Updates = []tasks.ProgressUpdate{{Stage: tasks.StageValidate, Message: "Validating settings"}}

		if err := tr.run("sync", "--json", "--pretty=false"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(tr.out.Bytes(), &got); err != nil {
			t.Fatalf("expected only JSON output, got %q: %v", tr.out.String(), err)
		}
		if got["channel_id"] != testChannelID || got["added"] != float64(2) {
			t.Errorf("unexpected summary %v", got)
		}
		if got["stage"] != "done" {
			t.Errorf("expected stage name, got %v", got["stage"])
		}
	})

	t.Run("echoes each stage once", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))
		tr.engine.Updates = []tasks.ProgressUpdate{
			{Stage: tasks.StageListSource, Message: "Listing uploads"},
			{Stage: tasks.StageAdd, Step: 1, Total: 2, Message: "Adding 1/2"},
			{Stage: tasks.StageAdd, Step: 2, Total: 2, Message: "Adding 2/2"},
		}

		if err := tr.run("sync"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := tr.out.String()
		if !strings.Contains(out, "→ Listing uploads") || !strings.Contains(out, "→ Adding 1/2") {
			t.Errorf("expected stage lines, got %q", out)
		}
		if strings.Contains(out, "Adding 2/2") {
			t.Errorf("expected repeated stage to be collapsed, got %q", out)
		}
	})

	t.Run("writes a report", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))
		path := filepath.Join(t.TempDir(), "reports", "run.csv")

		if err := tr.run("sync", "--report", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.Contains(content, testChannelID) {
			t.Errorf("expected channel in report, got %q", content)
		}
	})

	t.Run("rejects an unknown report format", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))

		err := tr.run("sync", "--report", filepath.Join(t.TempDir(), "run.out"), "--format", "yaml")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("failed run is returned after the summary", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))
		runErr := fmt.Errorf("%w: listing failed", shared.ErrAPIRequest)
		tr.engine.Summary = &tasks.Summary{ChannelID: testChannelID, Stage: tasks.StageListSource, Err: runErr, Error: runErr.Error()}

		err := tr.run("sync")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected run error, got %v", err)
		}
		if !strings.Contains(tr.out.String(), "Sync failed") {
			t.Errorf("expected failure summary, got %q", tr.out.String())
		}
		if exitCode(err) != exitFailure {
			t.Errorf("expected exit code %d, got %d", exitFailure, exitCode(err))
		}
	})

	t.Run("authorization required", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))
		authErr := &services.AuthRequiredError{URL: "https://accounts.example.com/auth"}
		tr.engine.Summary = &tasks.Summary{Stage: tasks.StageAuthenticate, AuthURL: authErr.URL, Err: authErr}

		err := tr.run("sync")
		if exitCode(err) != exitAuth {
			t.Errorf("expected exit code %d, got %d (%v)", exitAuth, exitCode(err), err)
		}
		if !strings.Contains(tr.out.String(), authErr.URL) {
			t.Errorf("expected authorization URL in output, got %q", tr.out.String())
		}
	})

	t.Run("missing token points at auth login", func(t *testing.T) {
		out := &bytes.Buffer{}
		creds := &tu.MockCredentials{}
		r := NewRunner(RunnerOpts{
			Config:      testConfig(t),
			Logger:      shared.NewLogger(&bytes.Buffer{}),
			Output:      out,
			Credentials: creds,
		})

		err := rootCommand(r).Run(context.Background(), []string{"ytsync", "sync"})
		if exitCode(err) != exitAuth {
			t.Errorf("expected exit code %d, got %d (%v)", exitAuth, exitCode(err), err)
		}
		if !strings.Contains(out.String(), "ytsync auth login") {
			t.Errorf("expected login hint, got %q", out.String())
		}
		if creds.LastURL != "" {
			t.Errorf("expected no authorization URL without a callback, got %q", creds.LastURL)
		}
	})
}

func TestAuth(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))

		if err := tr.run("auth", "status"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(tr.out.String(), "✓ Authenticated") {
			t.Errorf("unexpected output %q", tr.out.String())
		}
	})

	t.Run("status json without token", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))
		tr.creds.Valid = false

		if err := tr.run("auth", "status", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := tr.out.String(); got != "{\"authenticated\":false}\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("logout", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))

		if err := tr.run("auth", "logout"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !tr.creds.Revoked {
			t.Error("expected token to be revoked")
		}
		if !strings.Contains(tr.out.String(), "Logged out") {
			t.Errorf("unexpected output %q", tr.out.String())
		}
	})

	t.Run("logout without token", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))
		tr.creds.Valid = false

		if err := tr.run("auth", "logout"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(tr.out.String(), "No stored token") {
			t.Errorf("unexpected output %q", tr.out.String())
		}
	})

	t.Run("credentials are built from config and the token store", func(t *testing.T) {
		cfg := testConfig(t)
		r := NewRunner(RunnerOpts{Config: cfg, Logger: shared.NewLogger(&bytes.Buffer{}), Output: &bytes.Buffer{}})
		defer r.teardown(context.Background(), nil)

		creds, err := r.credentials()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if creds.HasValidToken(context.Background()) {
			t.Error("expected no token in a fresh database")
		}
		if url := creds.AuthorizationURL("state-1"); !strings.Contains(url, "state=state-1") {
			t.Errorf("unexpected authorization URL %q", url)
		}
		tu.AssertFileExists(t, cfg.Database.Path)
	})
}

func TestConfigCommands(t *testing.T) {
	t.Run("init writes the example config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		tr := newTestRunner(t, nil)

		if err := tr.run("--config", path, "config", "init"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(tr.out.String(), "ytsync auth login") {
			t.Errorf("expected next steps, got %q", tr.out.String())
		}

		if err := tr.run("--config", path, "config", "init"); err == nil {
			t.Error("expected init to refuse overwriting an existing file")
		}
	})

	t.Run("show masks the client secret", func(t *testing.T) {
		tr := newTestRunner(t, testConfig(t))

		if err := tr.run("config", "show"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := tr.out.String()
		if strings.Contains(out, "secret-value") {
			t.Errorf("expected secret to be masked, got %q", out)
		}
		if !strings.Contains(out, "********alue") {
			t.Errorf("expected masked secret, got %q", out)
		}
		if !strings.Contains(out, testChannelID) {
			t.Errorf("expected channel id, got %q", out)
		}
		if tr.config.Credentials.YouTube.ClientSecret != "secret-value" {
			t.Error("expected loaded config to keep the secret")
		}
	})

	t.Run("mask", func(t *testing.T) {
		tests := []struct {
			in, want string
		}{
			{"", ""},
			{"abc", "***"},
			{"abcdefgh", "****efgh"},
		}
		for _, tt := range tests {
			if got := mask(tt.in); got != tt.want {
				t.Errorf("mask(%q) = %q, want %q", tt.in, got, tt.want)
			}
		}
	})
}

func TestSetupDatabase(t *testing.T) {
	cfg := testConfig(t)
	tr := newTestRunner(t, cfg)

	if err := tr.run("setup", "database"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tu.AssertFileExists(t, cfg.Database.Path)

	if err := tr.run("setup", "database", "--rollback"); err != nil {
		t.Fatalf("unexpected rollback error: %v", err)
	}
	if !strings.Contains(tr.out.String(), "Rolled back") {
		t.Errorf("unexpected output %q", tr.out.String())
	}

	if err := tr.run("setup", "database", "--rollback"); err == nil {
		t.Error("expected rollback with nothing applied to fail")
	}
}

func TestServe(t *testing.T) {
	t.Run("stops on cancel", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Server.Host = "127.0.0.1"
		cfg.Server.Port = 0
		tr := newTestRunner(t, cfg)

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() {
			errc <- rootCommand(tr.Runner).Run(ctx, []string{"ytsync", "serve"})
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-errc:
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("serve did not stop")
		}
	})

	t.Run("engine issues states the callback accepts", func(t *testing.T) {
		cfg := testConfig(t)
		r := NewRunner(RunnerOpts{
			Config:      cfg,
			Logger:      shared.NewLogger(&bytes.Buffer{}),
			Output:      &bytes.Buffer{},
			Credentials: &tu.MockCredentials{},
		})
		r.states = server.NewStateStore()

		engine, err := r.syncEngine(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		summary := engine.Run(context.Background(), cfg.Settings(), nil)
		if summary.AuthURL == "" {
			t.Fatalf("expected an authorization URL, got %+v", summary)
		}
		state := summary.AuthURL[strings.Index(summary.AuthURL, "state=")+len("state="):]
		if !r.states.Consume(state) {
			t.Errorf("expected %q to be issued by the shared store", state)
		}
	})

	t.Run("invalid settings fail before listening", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Sync.ChannelID = ""
		tr := newTestRunner(t, cfg)

		err := tr.run("serve", "--port", "0")
		if exitCode(err) != exitConfig {
			t.Errorf("expected config exit code, got %d (%v)", exitCode(err), err)
		}
	})
}

func TestRedirectLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tui.log")
	tr := newTestRunner(t, testConfig(t))
	previous := tr.logger

	restore, err := tr.redirectLogs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr.logger.Info("inside the view")
	restore()

	if tr.logger != previous {
		t.Error("expected logger to be restored")
	}
	if content := tu.MustReadFile(t, path); !strings.Contains(content, "inside the view") {
		t.Errorf("expected log line in file, got %q", content)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"config error", shared.NewConfigError("sync.channel_id", "hint", shared.ErrInvalidConfig), exitConfig},
		{"missing credentials", fmt.Errorf("wrapped: %w", shared.ErrMissingCredentials), exitConfig},
		{"auth required", &services.AuthRequiredError{URL: "https://example.com"}, exitAuth},
		{"not authenticated", shared.ErrNotAuthenticated, exitAuth},
		{"other", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
