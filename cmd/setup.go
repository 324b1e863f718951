package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vtx/internal/shared"
)

// Setup writes the config file when missing and initializes the credential store.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = shared.DefaultConfigPath()
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cmd.String("api-url")), "/")

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil && !cmd.Bool("force") && apiURL == "":
		r.logger.Info("config file exists", "path", path)
	case statErr == nil && !cmd.Bool("force"):
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		config.API.BaseURL = apiURL
		if err := r.saveConfig(path, config); err != nil {
			return err
		}
	default:
		r.logger.Info("creating config file from template", "path", path)
		config := shared.DefaultConfig()
		if apiURL != "" {
			config.API.BaseURL = apiURL
		}
		if err := r.saveConfig(path, config); err != nil {
			return err
		}
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	r.configPath = path

	r.logger.Info("initializing credential store", "path", config.Store.Path)
	if err := r.Close(); err != nil {
		r.logger.Warn("failed to close previous store", "error", err)
	}

	db, err := shared.OpenStoreDatabase(config.Store.Path, config.Store.MaxOpenConns, config.Store.MaxIdleConns)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	r.db = db

	version, err := shared.CurrentSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Config:   %s\n", path)
	r.writePlain("Backend:  %s\n", config.API.BaseURL)
	r.writePlain("Store:    %s (schema v%d)\n", config.Store.Path, version)
	r.writePlainln("Next steps:")
	r.writePlain("1. Run 'vtx auth login --email you@example.com' to sign in\n")
	return r.writePlain("2. Run 'vtx videos list' to browse the catalog\n")
}

func (r *Runner) saveConfig(path string, config *shared.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if err := shared.SaveConfig(path, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Info("config saved", "path", path)
	return nil
}
