// Package main contains the entrypoint for the birthday bot application.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"bdaybot/internal/bot"
	"bdaybot/internal/bot/handlers"
	"bdaybot/internal/clock"
	"bdaybot/internal/config"
	"bdaybot/internal/conversation"
	"bdaybot/internal/database"
	"bdaybot/internal/disk"
	"bdaybot/internal/loader"
	"bdaybot/internal/logger"
	"bdaybot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// database, drive client, loader, dialogue, scheduler, telegram bot),
// handles graceful shutdown, and returns an exit code.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	diskClient := disk.NewClient(disk.Config{
		Token:     cfg.Disk.Token,
		AppID:     cfg.Disk.AppID,
		AppSecret: cfg.Disk.AppSecret,
		Timeout:   cfg.Disk.Timeout,
	}, log)

	dates := clock.NewResolver(cfg.Loader.TimeURL, cfg.Disk.Timeout, log)

	// The default handler feeds unmatched text into the add-birthday
	// dialogue. It is bound after the dialogue machine is wired, since the
	// machine's collaborators need the bot instance.
	var defaultHandler tgbot.HandlerFunc
	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if defaultHandler != nil {
				defaultHandler(ctx, b, update)
			}
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}
	sender := telegram.NewSender(tg)

	notifier := bot.NewAdminNotifier(sender, cfg.Telegram.AdminID, log)
	ldr := loader.New(loader.Config{
		RemotePath:  cfg.Disk.RemotePath,
		LocalPath:   cfg.Disk.LocalPath,
		HorizonDays: cfg.Loader.HorizonDays,
	}, store, diskClient, dates, notifier, log)

	recorder := bot.NewRecorder(cfg, diskClient, ldr, log)
	dialogue := conversation.NewMachine(conversation.NewMemoryStore(), recorder, store, log)

	dispatcher := bot.NewDispatcher(ldr, sender, cfg.Loader.FreshPeriod, log)
	sched, err := bot.NewScheduler(cfg.Scheduler.DispatchCron, dispatcher.Dispatch, log)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Loader:    ldr,
		Scheduler: sched,
		Disk:      diskClient,
		Dialogue:  dialogue,
	}

	defaultHandler = handlers.NewDialogueHandler(hDeps)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	app := bot.NewBot(log, store, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
