package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSendBirthdaysHandler returns a handler for the /sendbdays command. It
// refreshes the digest if the cache has gone stale and sends the resulting
// messages to the requesting chat.
func NewSendBirthdaysHandler(deps HandlerDeps) bot.HandlerFunc {
	return sendBirthdaysHandler{deps}.Handle
}

type sendBirthdaysHandler struct {
	deps HandlerDeps
}

func (h sendBirthdaysHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "sendbdays")

	if update.Message == nil {
		log.WarnContext(ctx, "Handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /sendbdays command", "chat_id", chatID)

	h.deps.Loader.Ensure(ctx, h.deps.Config.Loader.FreshPeriod)

	for _, text := range h.deps.Loader.MessageList() {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:              chatID,
			Text:                text,
			DisableNotification: true,
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send digest message", "error", err, "chat_id", chatID)
		}
	}
}
