// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles initialization of config, database, and migrations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration, database, and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// artistsCommand handles roster management operations
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "artists",
		Aliases: []string{"artist"},
		Usage:   "Manage the tracked artist roster",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add an artist by name (catalog search) or by ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Spotify artist ID (skips the name search)",
					},
				},
				Action: r.ArtistsAdd,
			},
			{
				Name:  "import",
				Usage: "Import artist names from a text file, one per line ('-' for stdin)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.ArtistsImport,
			},
			{
				Name:  "import-playlist",
				Usage: "Import every artist appearing on a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ArtistsImportPlaylist,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List tracked artists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ArtistsList,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove an artist from the roster by Spotify ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ArtistsRemove,
			},
			{
				Name:  "export",
				Usage: "Export the roster to a JSON backup file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.ArtistsExport,
			},
			{
				Name:  "restore",
				Usage: "Restore the roster from a JSON backup file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.ArtistsRestore,
			},
			{
				Name:  "profile",
				Usage: "Show an artist's release cadence profile from cached history",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ArtistsProfile,
			},
		},
	}
}

// trackCommand handles release tracking runs
func trackCommand(r *Runner) *cli.Command {
	trackFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "lookback",
			Usage: "Lookback window in days",
		},
		&cli.IntFlag{
			Name:  "max-tracks",
			Usage: "Per-artist cap on reported tracks (most popular kept)",
		},
		&cli.BoolFlag{
			Name:  "force-refresh",
			Usage: "Bypass the release cache",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, csv, markdown",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the report to a file instead of stdout",
		},
	}

	return &cli.Command{
		Name:  "track",
		Usage: "Discover recent releases",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Track every artist on the roster",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "delta",
						Usage: "Report only releases discovered since the last completed run",
					},
					&cli.BoolFlag{
						Name:  "ui",
						Usage: "Show an interactive progress view",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent artist pipelines",
					},
					&cli.Float64Flag{
						Name:  "rate",
						Usage: "Artist dispatches per second",
					},
				}, trackFlags...),
				Action: r.TrackRun,
			},
			{
				Name:  "artist",
				Usage: "One-shot tracking for a single artist by name",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags:  trackFlags,
				Action: r.TrackArtist,
			},
			{
				Name:  "playlist",
				Usage: "One-shot tracking for every artist on a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  trackFlags,
				Action: r.TrackPlaylist,
			},
		},
	}
}

// cacheCommand handles release cache hygiene
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local release cache",
		Commands: []*cli.Command{
			{
				Name:  "purge",
				Usage: "Delete stale or per-artist cache entries",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-age-hours",
						Usage: "Delete entries fetched more than this many hours ago",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Delete every cached release for one artist ID",
					},
				},
				Action: r.CachePurge,
			},
		},
	}
}

// historyCommand shows the run ledger
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent tracking runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of runs to show",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}
