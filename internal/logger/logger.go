// Package logger provides structured logging built on log/slog with
// configurable level and output encoding.
package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// New creates a slog Logger with the given level and format and installs it
// as the process default.
func New(levelStr, format string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// Middleware logs every incoming update with its chat, text preview, and
// processing duration.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()

			entry := log.With("update_id", update.ID)
			if update.Message != nil {
				entry = entry.With(
					"chat_id", update.Message.Chat.ID,
					"text_preview", truncate(update.Message.Text, 50),
				)
			}

			entry.InfoContext(ctx, "Processing update")
			next(ctx, b, update)
			entry.InfoContext(ctx, "Finished processing update", "duration", time.Since(start))
		}
	}
}

// truncate shortens s to maxLen runes. Cutting on runes keeps multi-byte
// previews (Cyrillic message text) valid UTF-8.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
