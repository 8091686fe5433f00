package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	codeMissing = "Вы не передали код. Попробуйте еще раз.\n" +
		"Введите команду /code, добавьте пробел и напишите ваш код."
	codeInvalid = "Вы ввели неверный код. Попробуйте получить новый код."
	codeOK      = "Код прошел проверку. Получите информацию о днях рождениях " +
		"партнеров вызвав команду /sendbdays."
	codeBroken = "Что-то пошло не так. Обратитесь к разработчику."
)

// NewCodeHandler returns a handler for the /code command. The operator
// sends a fresh OAuth confirmation code after the drive token expires; the
// handler trades it for a new token and installs it on the drive client.
func NewCodeHandler(deps HandlerDeps) bot.HandlerFunc {
	return codeHandler{deps}.Handle
}

type codeHandler struct {
	deps HandlerDeps
}

func (h codeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "code")

	if update.Message == nil {
		log.WarnContext(ctx, "Handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /code command", "chat_id", chatID)

	code := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/code"))
	if code == "" {
		h.send(ctx, b, log, chatID, codeMissing)
		return
	}

	token, err := h.deps.Disk.ExchangeCode(ctx, code)
	if err != nil {
		log.WarnContext(ctx, "Confirmation code rejected", "error", err, "chat_id", chatID)
		h.send(ctx, b, log, chatID, codeInvalid)
		h.send(ctx, b, log, chatID, "Получить новый код можно здесь:\n"+h.deps.Disk.CodeURL())
		return
	}

	h.deps.Disk.SetToken(token)
	if !h.deps.Disk.CheckCredential(ctx) {
		log.ErrorContext(ctx, "Exchanged token rejected by drive API", "chat_id", chatID)
		h.send(ctx, b, log, chatID, codeBroken)
		return
	}

	log.InfoContext(ctx, "Drive token renewed", "chat_id", chatID)
	h.send(ctx, b, log, chatID, codeOK)
}

func (h codeHandler) send(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:              chatID,
		Text:                text,
		DisableNotification: true,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}
