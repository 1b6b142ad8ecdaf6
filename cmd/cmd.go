// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootCommand builds the ytsync application with its global flags.
func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ytsync",
		Usage:   "Copy every upload of a YouTube channel into one of your playlists",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files (default: .env)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log warnings and errors",
			},
		},
		Before:   r.setup,
		After:    r.teardown,
		Action:   r.Sync,
		Commands: r.register(),
	}
}

// syncCommand runs one synchronization.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Add every missing channel upload to the destination playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "channel-id",
				Usage: "Channel whose uploads are copied (overrides sync.channel_id)",
			},
			&cli.StringFlag{
				Name:  "playlist-id",
				Usage: "Existing destination playlist ID (overrides sync.playlist_id)",
			},
			&cli.StringFlag{
				Name:  "playlist-name",
				Usage: "Title used to find or create the destination playlist",
			},
			&cli.StringFlag{
				Name:  "playlist-name-en",
				Usage: "Secondary title, also written into the playlist description",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show live progress in an interactive view",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the run summary as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"o"},
				Usage:   "Also write the run summary to this file",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: text, json, csv or markdown (default: from the file extension)",
			},
		},
		Action: r.Sync,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the YouTube authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize ytsync in the browser and store the token",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Report whether a usable token is stored",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored token",
				Action: r.AuthLogout,
			},
		},
	}
}

// serveCommand exposes sync and authorization over HTTP.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the sync and OAuth callback endpoints over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// configCommand manages the configuration file.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration file commands",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write an example configuration file",
				Action: r.ConfigInit,
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration with secrets masked",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ConfigShow,
			},
		},
	}
}

// setupCommand handles setup operations for the token database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the token database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
