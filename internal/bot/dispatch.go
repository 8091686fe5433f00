package bot

import (
	"context"
	"log/slog"
	"time"

	"bdaybot/internal/loader"
)

// Sender delivers plain-text messages to a chat. The Telegram transport
// implements it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Dispatcher sends the current birthday digest to a chat, refreshing the
// loader's cache first when it has gone stale.
type Dispatcher struct {
	loader      *loader.Loader
	sender      Sender
	freshPeriod time.Duration
	logger      *slog.Logger
}

// NewDispatcher creates a dispatcher over the shared loader and sender.
func NewDispatcher(ldr *loader.Loader, sender Sender, freshPeriod time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		loader:      ldr,
		sender:      sender,
		freshPeriod: freshPeriod,
		logger:      logger.With("component", "dispatcher"),
	}
}

// Dispatch sends the digest messages to one chat in order: warning first if
// the data could not be refreshed, then today's birthdays, then the
// upcoming ones.
func (d *Dispatcher) Dispatch(ctx context.Context, chatID int64) {
	d.loader.Ensure(ctx, d.freshPeriod)

	for _, text := range d.loader.MessageList() {
		if err := d.sender.SendMessage(ctx, chatID, text); err != nil {
			d.logger.ErrorContext(ctx, "Failed to send digest message", "chat_id", chatID, "error", err)
		}
	}
}
