// Package main содержит административную утилиту сервиса StarQuest.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/starquest/internal/config"
	"github.com/mmeshcher/starquest/internal/repository"
	"github.com/mmeshcher/starquest/internal/service"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "starquestctl",
		Short:         "StarQuest administration tool",
		Long:          `starquestctl runs maintenance tasks against the StarQuest database: the monthly interest settlement, demo data snapshots and interest tier inspection.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(settleCmd(&verbose))
	cmd.AddCommand(demoCmd(&verbose))
	cmd.AddCommand(tiersCmd(&verbose))

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// openService подключается к базе данных из переменных окружения.
func openService(verbose bool) (*service.Service, *zap.Logger, error) {
	logger := newLogger(verbose)

	cfg, err := config.ParseEnv()
	if err != nil {
		return nil, logger, err
	}
	if cfg.DatabaseURI == "" {
		return nil, logger, errors.New("DATABASE_URI is not set")
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		return nil, logger, fmt.Errorf("database initialization error: %w", err)
	}

	svc := service.NewService(repo, nil, logger, service.Options{
		BatchTimeout: cfg.BatchTimeout,
		AppBaseURL:   cfg.AppBaseURL,
	})
	return svc, logger, nil
}

func parseFamily(family string) (uuid.UUID, error) {
	id, err := uuid.Parse(family)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --family %q: %w", family, err)
	}
	return id, nil
}
