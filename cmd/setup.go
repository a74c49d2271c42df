package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/flickx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the embedded template when missing, then creates the
// session database and runs its migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			return err
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Wrote %s\n", configPath)
		config = shared.DefaultConfig()
	}
	shared.ApplyEnv(config)

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	r.writePlain("✓ Session database ready at %s (schema v%d)\n", config.Database.Path, version)

	if err := config.Validate(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Set auth.url and auth.anon_key in %s (or SUPABASE_URL / SUPABASE_ANON_KEY)\n", configPath)
		r.writePlain("2. Point backend.base_url at your flickx backend\n")
		r.logger.Debug("configuration incomplete", "error", err)
	}
	return nil
}
