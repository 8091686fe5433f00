package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewCancelHandler returns a handler for the /cancel command. It aborts the
// add-birthday dialogue for the requesting chat if one is in progress.
func NewCancelHandler(deps HandlerDeps) bot.HandlerFunc {
	return cancelHandler{deps}.Handle
}

type cancelHandler struct {
	deps HandlerDeps
}

func (h cancelHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "cancel")

	if update.Message == nil {
		log.WarnContext(ctx, "Handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /cancel command", "chat_id", chatID)

	reply, err := h.deps.Dialogue.Cancel(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to cancel dialogue", "error", err, "chat_id", chatID)
		return
	}
	sendDialogueReply(ctx, b, log, chatID, reply)
}
