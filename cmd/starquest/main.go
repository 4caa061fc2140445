// Package main запускает HTTP-сервер сервиса StarQuest.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/starquest/internal/config"
	"github.com/mmeshcher/starquest/internal/handler"
	"github.com/mmeshcher/starquest/internal/middleware"
	"github.com/mmeshcher/starquest/internal/notify"
	"github.com/mmeshcher/starquest/internal/repository"
	"github.com/mmeshcher/starquest/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	var mailer service.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewClient(notify.DefaultBaseURL, cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		sugar.Warn("RESEND_API_KEY is empty, invite e-mails are disabled")
	}

	svc := service.NewService(repo, mailer, logger, service.Options{
		BatchTimeout:       cfg.BatchTimeout,
		SettlementInterval: cfg.SettlementInterval,
		AppBaseURL:         cfg.AppBaseURL,
	})
	defer svc.Close()

	if cfg.AuthSecret == "" {
		sugar.Warn("AUTH_SECRET is empty, sessions will not survive a restart")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware, cfg.Origins())

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Ежемесячный расчёт процентов по долгу
	g.Go(func() error {
		svc.StartSettlementScheduler(ctx)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting starquest server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
