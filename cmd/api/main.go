// Command api runs the API playground backend.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/api-playground-backend/internal/config"
	"github.com/sandeepkv93/api-playground-backend/internal/database"
	"github.com/sandeepkv93/api-playground-backend/internal/di"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "api",
		Short:         "API playground backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Migrate the schema and serve HTTP", RunE: runServe},
		&cobra.Command{Use: "migrate", Short: "Apply schema migrations and exit", RunE: runMigrate},
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, cleanup, err := di.InitializeApp(ctx, cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer cleanup()

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run server: %w", err)
	}
	application.Logger.Info("server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := cmd.Context()
	logger, _, err := observability.NewLogger(ctx, withoutLogExport(cfg), os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = database.Close(db) }()
	if err := database.Migrate(db); err != nil {
		return err
	}
	observability.AuditContext(ctx, "schema.migrated", "driver", cfg.DBDriver, "models", len(database.Models()))
	return nil
}

// withoutLogExport keeps the one-shot migrate command off the OTLP pipeline.
func withoutLogExport(cfg *config.Config) *config.Config {
	cp := *cfg
	cp.OTELLogsEnabled = false
	return &cp
}
