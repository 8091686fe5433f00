// Package bot implements the application core: lifecycle orchestration, the
// per-chat dispatch scheduler, digest dispatch, and workbook write-back.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"bdaybot/internal/database"
)

// Bot manages the component lifecycle: the Telegram listener and the
// dispatch scheduler run until the context is cancelled or one of them
// fails. The store is only needed to restore the dispatch schedule.
type Bot struct {
	logger    *slog.Logger
	store     database.Store
	tgBot     *tgbot.Bot
	scheduler *Scheduler
}

// NewBot creates the orchestrator with all required components.
func NewBot(
	logger *slog.Logger,
	store database.Store,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		store:     store,
		tgBot:     tgBot,
		scheduler: scheduler,
	}
}

// Run starts all components and blocks until shutdown. It restores the
// dispatch schedule from stored subscriptions before starting the
// scheduler.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")

		b.tgBot.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")

			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		if err := b.scheduler.Restore(gCtx, b.store); err != nil {
			b.logger.Error("Failed to restore dispatch schedule", "error", err)
			return fmt.Errorf("failed to restore dispatch schedule: %w", err)
		}

		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
