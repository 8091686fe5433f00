package handlers

import (
	"log/slog"

	botpkg "bdaybot/internal/bot"
	"bdaybot/internal/config"
	"bdaybot/internal/conversation"
	"bdaybot/internal/database"
	"bdaybot/internal/disk"
	"bdaybot/internal/loader"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Loader    *loader.Loader
	Scheduler *botpkg.Scheduler
	Disk      *disk.Client
	Dialogue  *conversation.Machine
}
