package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"leadrelay/internal/config"
	"leadrelay/internal/logger"
	"leadrelay/internal/shops"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "leadrelay",
		Short: "Normalize lead exports and relay them to the collector",
		Long: `leadrelay reads the daily lead exports of the housing portals, maps
them to canonical records, attributes each lead to a shop and posts
every actionable lead to the collector endpoint.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadEnv(opts.envFile)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "configs/leadrelay.yaml", "Path to the configuration file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to a .env file with portal credentials")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newReplayCmd(opts))
	cmd.AddCommand(newShopsCmd(opts))

	return cmd
}

// loadEnv loads credentials from a .env file. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	return nil
}

// app holds what every subcommand builds from the configuration.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	resolver *shops.Resolver
	dir      *shops.Directory
}

func loadApp(opts *rootOptions) (*app, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewLoggerWithWriter(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	dir, err := shops.LoadDirectory(cfg.Shops.File, cfg.Shops.Entries)
	if err != nil {
		return nil, err
	}

	log.Debug("Configuration loaded", "config", cfg.String(), "shops", dir.Len())

	return &app{
		cfg:      cfg,
		log:      log,
		dir:      dir,
		resolver: shops.NewResolver(dir, cfg.Shops.Aliases, cfg.Shops.UnassignedSuffix),
	}, nil
}
