// export writes every stored lead to an xlsx spreadsheet.
//
//	go run ./cmd/export --out leads_exported.xlsx
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lead-capture/internal/config"
	"lead-capture/internal/db"
	"lead-capture/internal/export"
	"lead-capture/internal/lead/repository"
	"lead-capture/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:           "export",
		Short:         "Export every lead to an xlsx spreadsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger, err := logging.New(cfg.LogLevel, cfg.Env)
			if err != nil {
				return fmt.Errorf("logging: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			if out == "" {
				out = cfg.ExportPath
			}
			if err := run(cmd.Context(), cfg.DatabaseURL, out, logger); err != nil {
				logger.Error("export failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default EXPORT_PATH)")
	return cmd
}

func run(ctx context.Context, dsn, out string, logger *zap.Logger) error {
	conn, err := db.OpenX(dsn)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer conn.Close()
	if db.IsSQLite(dsn) {
		if err := db.EnsureSchema(ctx, conn); err != nil {
			return fmt.Errorf("db schema: %w", err)
		}
	}

	n, err := export.WriteFile(ctx, repository.NewSQLRepository(conn), out)
	if errors.Is(err, export.ErrNoLeads) {
		logger.Info("no leads found in the database")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("leads exported", zap.Int("rows", n), zap.String("path", out))
	return nil
}
