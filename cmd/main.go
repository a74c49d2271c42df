package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("FLICKX_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	shared.ApplyEnv(config)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
		Opener:     shared.OpenBrowser,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:    "flickx",
		Usage:   "Discover movies by title, genre or mood",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotAuthenticated):
			logger.Error("you are not signed in; run `flickx auth login` first")
		case errors.Is(err, shared.ErrMissingConfig), errors.Is(err, shared.ErrMissingCredentials):
			logger.Error("configuration incomplete; run `flickx setup` and edit config.toml", "error", err)
		default:
			logger.Errorf("application error: %v", err)
		}
		runner.Close()
		os.Exit(1)
	}
}
