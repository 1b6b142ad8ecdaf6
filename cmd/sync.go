package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ytsync/internal/formatter"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	"github.com/desertthunder/ytsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Sync runs one synchronization with the configured settings, overridden by flags.
//
// The summary is always printed; a failed run is returned as an error so the exit status reflects it.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	settings := r.settings(cmd)
	if err := settings.Validate(); err != nil {
		return err
	}

	useTUI := cmd.Bool("tui")
	if useTUI {
		closeLog, err := r.redirectLogs(tuiLogPath)
		if err != nil {
			return err
		}
		defer closeLog()
	}

	engine, err := r.syncEngine(ctx)
	if err != nil {
		return err
	}

	var summary *tasks.Summary
	if useTUI {
		if summary, err = r.runTUI(ctx, engine, settings); err != nil {
			return err
		}
	} else {
		summary = r.runPlain(ctx, engine, settings, !cmd.Bool("json"))
	}

	if err := r.writeSummary(summary, cmd.Bool("json"), cmd.Bool("pretty")); err != nil {
		return err
	}

	if path := cmd.String("report"); path != "" {
		if err := formatter.WriteReport(summary, path, cmd.String("format")); err != nil {
			return err
		}
		r.logger.Info("report written", "path", path)
	}

	if summary.Err != nil {
		return summary.Err
	}
	if summary.Error != "" {
		return errors.New(summary.Error)
	}
	return nil
}

// settings resolves the run settings: flags override the loaded configuration.
func (r *Runner) settings(cmd *cli.Command) shared.SyncSettings {
	cfg := *r.config
	for _, o := range []struct {
		flag   string
		target *string
	}{
		{"channel-id", &cfg.Sync.ChannelID},
		{"playlist-id", &cfg.Sync.PlaylistID},
		{"playlist-name", &cfg.Sync.PlaylistName},
		{"playlist-name-en", &cfg.Sync.PlaylistNameEN},
	} {
		if v := cmd.String(o.flag); v != "" {
			*o.target = v
		}
	}
	return cfg.Settings()
}

// runPlain runs the engine in the foreground, printing each stage as it starts.
func (r *Runner) runPlain(ctx context.Context, engine tasks.SyncEngine, settings shared.SyncSettings, echo bool) *tasks.Summary {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		last := tasks.Stage(-1)
		for update := range progress {
			if !echo || update.Stage == last {
				continue
			}
			last = update.Stage
			r.writePlain("→ %s\n", update.Message)
		}
	}()

	summary := engine.Run(ctx, settings, progress)
	close(progress)
	<-done
	return summary
}

func (r *Runner) writeSummary(summary *tasks.Summary, asJSON, pretty bool) error {
	if asJSON {
		return r.writeJSON(summary, pretty)
	}
	return r.writePlain("\n%s\n", ui.RenderSummary(summary))
}

// redirectLogs sends log output to a file for the lifetime of an interactive view.
func (r *Runner) redirectLogs(path string) (func(), error) {
	fileLogger, file, err := shared.NewFileLogger(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())

	previous := r.logger
	r.SetLogger(fileLogger)
	return func() {
		r.SetLogger(previous)
		file.Close()
	}, nil
}
