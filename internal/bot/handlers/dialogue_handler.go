package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewDialogueHandler returns the default message handler. It routes plain
// text into the add-birthday dialogue of the sending chat; messages for
// chats with no dialogue in progress are ignored.
func NewDialogueHandler(deps HandlerDeps) bot.HandlerFunc {
	return dialogueHandler{deps}.Handle
}

type dialogueHandler struct {
	deps HandlerDeps
}

func (h dialogueHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "dialogue")

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	// Commands are routed by their own handlers.
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	chatID := update.Message.Chat.ID
	reply, handled, err := h.deps.Dialogue.Handle(ctx, chatID, update.Message.Text)
	if err != nil {
		log.ErrorContext(ctx, "Dialogue step failed", "error", err, "chat_id", chatID)
		return
	}
	if !handled {
		return
	}
	sendDialogueReply(ctx, b, log, chatID, reply)
}
