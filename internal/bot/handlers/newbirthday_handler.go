package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewNewBirthdayHandler returns a handler for the /newbirthday command. It
// starts the add-birthday dialogue for the requesting chat.
func NewNewBirthdayHandler(deps HandlerDeps) bot.HandlerFunc {
	return newBirthdayHandler{deps}.Handle
}

type newBirthdayHandler struct {
	deps HandlerDeps
}

func (h newBirthdayHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "newbirthday")

	if update.Message == nil {
		log.WarnContext(ctx, "Handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /newbirthday command", "chat_id", chatID)

	reply, err := h.deps.Dialogue.Start(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to start dialogue", "error", err, "chat_id", chatID)
		return
	}
	sendDialogueReply(ctx, b, log, chatID, reply)
}
