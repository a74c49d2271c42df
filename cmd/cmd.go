// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, markdown, csv or json",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to a file instead of stdout",
		},
	}
}

func exportFlags() []cli.Flag {
	return append(outputFlags(),
		&cli.StringFlag{
			Name:  "export-dir",
			Usage: "Write a Markdown export (README.md) into this directory",
		},
		&cli.BoolFlag{
			Name:  "posters",
			Usage: "Download posters into the export directory",
		},
	)
}

// setupCommand writes the config template and prepares the session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the session database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   r.configPath,
			},
		},
		Action: r.Setup,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search movies by title",
		ArgsUsage: "<query>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags:  exportFlags(),
		Action: r.Search,
	}
}

func genreCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "genre",
		Aliases:   []string{"g"},
		Usage:     "Browse movies of a genre",
		ArgsUsage: "<genre>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "genre"},
		},
		Flags:  exportFlags(),
		Action: r.Genre,
	}
}

func moodCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "mood",
		Aliases:   []string{"m"},
		Usage:     "Get recommendations for how you feel",
		ArgsUsage: "<mood>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "mood"},
		},
		Flags:  exportFlags(),
		Action: r.Mood,
	}
}

func trendingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "trending",
		Usage:  "List trending movies",
		Flags:  exportFlags(),
		Action: r.Trending,
	}
}

func recentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "recent",
		Usage:  "List recently released movies",
		Flags:  exportFlags(),
		Action: r.Recent,
	}
}

func personalCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "personal",
		Aliases: []string{"foryou"},
		Usage:   "Show recommendations based on your history (requires login)",
		Flags:   exportFlags(),
		Action:  r.Personal,
	}
}

func detailsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "details",
		Aliases:   []string{"info"},
		Usage:     "Show full details for a movie by IMDb id",
		ArgsUsage: "<imdb-id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:  "title",
				Usage: "Look the movie up by title instead of id",
			},
			&cli.StringFlag{
				Name:  "open",
				Usage: "Open the named streaming link (e.g. IMDb, Netflix) in the browser",
			},
		),
		Action: r.Details,
	}
}

func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "track",
		Usage:     "Record an interaction with a movie (requires login)",
		ArgsUsage: "<imdb-id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Usage:    "Movie title",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Interaction kind: viewed, liked or watchlist",
				Value: "viewed",
			},
			&cli.StringFlag{
				Name:  "mood",
				Usage: "Mood the movie was recommended for",
			},
		},
		Action: r.Track,
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	credentials := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Account password",
				Sources:  cli.EnvVars("FLICKX_PASSWORD"),
				Required: true,
			},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account and session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in with email and password",
				Flags:  credentials(),
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create an account; a confirmation email is sent",
				Flags: append(credentials(),
					&cli.StringFlag{
						Name:  "full-name",
						Usage: "Your full name",
					},
					&cli.StringFlag{
						Name:  "username",
						Usage: "Display username",
					},
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "Wait for the confirmation link and sign in",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long --wait listens for the confirmation link",
						Value: 10 * time.Minute,
					},
				),
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the local session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session",
				Action: r.AuthStatus,
			},
			{
				Name:  "confirm",
				Usage: "Listen for the email confirmation link and sign in",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the link",
						Value: 10 * time.Minute,
					},
				},
				Action: r.AuthConfirm,
			},
		},
	}
}

func feedbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "feedback",
		Usage: "Send feedback to the flickx team",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Your name", Required: true},
			&cli.StringFlag{Name: "email", Usage: "Your email", Required: true},
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Feedback message", Required: true},
			&cli.IntFlag{Name: "rating", Usage: "Rating from 1 to 5", Value: 5},
		},
		Action: r.Feedback,
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive movie browser",
		Action:  r.TUI,
	}
}
