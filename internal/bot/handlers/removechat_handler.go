package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	removeChatDone = "Чат исключен из списка ежедневной рассылки дней рождения партнеров. " +
		"Вы можете возобновить рассылку с помощью команды /addchat."
	removeChatFailed = "Не удалось удалить чат из списка рассылки.\n" +
		"Попробуйте позднее."
)

// NewRemoveChatHandler returns a handler for the /removechat command. It
// unsubscribes the requesting chat from the daily digest.
func NewRemoveChatHandler(deps HandlerDeps) bot.HandlerFunc {
	return removeChatHandler{deps}.Handle
}

type removeChatHandler struct {
	deps HandlerDeps
}

func (h removeChatHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "removechat")

	if update.Message == nil {
		log.WarnContext(ctx, "Handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /removechat command", "chat_id", chatID)

	text := removeChatDone
	if err := h.unsubscribe(ctx, chatID); err != nil {
		log.ErrorContext(ctx, "Failed to unsubscribe chat", "error", err, "chat_id", chatID)
		text = removeChatFailed
	} else {
		log.InfoContext(ctx, "Chat removed from mailing list", "chat_id", chatID)
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:              chatID,
		Text:                text,
		DisableNotification: true,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send confirmation", "error", err, "chat_id", chatID)
	}
}

func (h removeChatHandler) unsubscribe(ctx context.Context, chatID int64) error {
	if err := h.deps.Store.RemoveSubscription(ctx, chatID); err != nil {
		return err
	}
	return h.deps.Scheduler.RemoveChat(chatID)
}
