package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/database"
	"github.com/saturnino-fabrica-de-software/facematch/internal/registry"
	"github.com/saturnino-fabrica-de-software/facematch/internal/storage"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "facectl",
	Short: "Manage the face registry without the HTTP server",
	Long: `facectl works on the same registry and storage backend as the API.
Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
}

// env is what every command needs: configuration, a logger and the registry.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *registry.Registry
	close    func()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = config.NewLogger(cfg.Environment, cfg.LogLevel)
	}

	if cfg.StorageBackend == storage.BackendPostgres {
		if err := database.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	store, closeStore, err := storage.Open(ctx, cfg.StorageConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	reg := registry.New(store, cfg.RegistryKey, logger)
	if err := reg.Load(ctx); err != nil {
		closeStore()
		return nil, fmt.Errorf("load registry: %w", err)
	}

	return &env{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		close:    closeStore,
	}, nil
}
