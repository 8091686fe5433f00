package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const startMessage = "Привет!👋 Я бот-помощник!\n" +
	"Чтобы посмотреть список моих команд, введите символ /"

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil {
		log.WarnContext(ctx, "Start handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID)

	// /start also aborts any dialogue in progress.
	if h.deps.Dialogue.Active(ctx, chatID) {
		if _, err := h.deps.Dialogue.Cancel(ctx, chatID); err != nil {
			log.ErrorContext(ctx, "Failed to cancel dialogue", "error", err, "chat_id", chatID)
		}
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:              chatID,
		Text:                startMessage,
		ReplyMarkup:         &models.ReplyKeyboardRemove{RemoveKeyboard: true},
		DisableNotification: true,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", chatID)
	}
}
