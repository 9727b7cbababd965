package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mehubot/mehu/internal/app"
	"github.com/mehubot/mehu/internal/config"
	"github.com/mehubot/mehu/internal/logger"
)

// startupTimeout bounds the getMe call that verifies the token.
const startupTimeout = 30 * time.Second

func RunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll Telegram and serve inline queries until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return err
	}
	defer func() {
		closeErr := a.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	meCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	me, err := a.Client.GetMe(meCtx)
	cancel()
	if err != nil {
		slog.Error("failed to reach telegram", "error", err)
		return fmt.Errorf("startup failed: %w", err)
	}

	slog.Info("bot starting", "username", me.Username, "env", cfg.AppEnv, "archive", cfg.ArchiveEnabled())

	events := a.Poller.Start(ctx)

	// Stop polling on signal. The dispatcher ignores ctx cancellation and drains
	// what was already delivered until the poller closes the channel.
	go func() {
		<-ctx.Done()
		a.Poller.Stop()
	}()

	err = a.Dispatcher.Run(ctx, events)
	a.Poller.Stop()
	<-a.Poller.Done()

	if err != nil {
		slog.Error("dispatcher failed", "error", err)
		return err
	}

	slog.Info("bot stopped", "offset", a.Poller.Offset())
	return nil
}
