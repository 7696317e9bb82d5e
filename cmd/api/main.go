package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/PratikDhanave/telescope-livewire/internal/config"
	"github.com/PratikDhanave/telescope-livewire/internal/httpserver"
	"github.com/PratikDhanave/telescope-livewire/internal/livewire"
	"github.com/PratikDhanave/telescope-livewire/internal/logging"
	"github.com/PratikDhanave/telescope-livewire/internal/store"
	"github.com/PratikDhanave/telescope-livewire/internal/telescope"
)

// schemaEnsurer is implemented by repositories that manage their own schema.
type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "api",
		Short:         "Serve reactive-component updates and record each call as a request entry",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config.yaml")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run boots the service: config → logger → repository → schema → HTTP server.
func run(ctx context.Context, configPath string) error {
	// Load runtime config from config.yaml and environment.
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// Connect to the configured entries repository.
	repo, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s repository: %w", cfg.StorageDriver, err)
	}
	defer repo.Close()

	// Ensure required tables/indexes exist so `docker compose up --build` is enough.
	if s, ok := repo.(schemaEnsurer); ok {
		if err := s.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	reg := livewire.NewRegistry()
	for name, class := range cfg.Components {
		reg.Register(name, class)
	}

	tel := telescope.New(cfg.TelescopeEnabled)

	router, err := httpserver.NewRouter(cfg, repo, tel, reg, logger)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	logger.Info("server started",
		slog.String("addr", cfg.Addr),
		slog.String("storage", cfg.StorageDriver),
		slog.Int("components", len(reg.Names())),
	)
	return router.Run(cfg.Addr)
}
