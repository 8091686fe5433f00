package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	addChatDone = "Ежедневная рассылка списка дней рождения партнеров " +
		"для данного чата запланирована.\n" +
		"Рассылка осуществляется каждый день в 09:00 МСК."
	addChatFailed = "Не удалось добавить чат в список рассылки.\n" +
		"Попробуйте позднее."
)

// NewAddChatHandler returns a handler for the /addchat command. It
// subscribes the requesting chat to the daily digest.
func NewAddChatHandler(deps HandlerDeps) bot.HandlerFunc {
	return addChatHandler{deps}.Handle
}

type addChatHandler struct {
	deps HandlerDeps
}

func (h addChatHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "addchat")

	if update.Message == nil {
		log.WarnContext(ctx, "Handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /addchat command", "chat_id", chatID)

	text := addChatDone
	if err := h.subscribe(ctx, chatID); err != nil {
		log.ErrorContext(ctx, "Failed to subscribe chat", "error", err, "chat_id", chatID)
		text = addChatFailed
	} else {
		log.InfoContext(ctx, "Chat added to mailing list", "chat_id", chatID)
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

// subscribe persists the subscription and schedules the dispatch job. The
// stored row is what survives a restart; the job is rebuilt from it.
func (h addChatHandler) subscribe(ctx context.Context, chatID int64) error {
	if err := h.deps.Store.AddSubscription(ctx, chatID); err != nil {
		return err
	}
	return h.deps.Scheduler.AddChat(chatID)
}
