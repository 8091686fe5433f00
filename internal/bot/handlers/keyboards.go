package handlers

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"bdaybot/internal/conversation"
	"bdaybot/internal/format"
)

// monthsKeyboard lays the twelve months out in rows of four with a cancel
// row underneath.
func monthsKeyboard() *models.ReplyKeyboardMarkup {
	const rowWidth = 4
	var rows [][]models.KeyboardButton
	var row []models.KeyboardButton
	for _, month := range format.Months {
		row = append(row, models.KeyboardButton{Text: month})
		if len(row) == rowWidth {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []models.KeyboardButton{{Text: conversation.ButtonCancel}})
	return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

// daysKeyboard lays days 1..days out in rows of five with a control row
// underneath.
func daysKeyboard(days int) *models.ReplyKeyboardMarkup {
	const rowWidth = 5
	var rows [][]models.KeyboardButton
	var row []models.KeyboardButton
	for day := 1; day <= days; day++ {
		row = append(row, models.KeyboardButton{Text: strconv.Itoa(day)})
		if len(row) == rowWidth {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []models.KeyboardButton{
		{Text: conversation.ButtonCancel},
		{Text: conversation.ButtonRestart},
	})
	return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

func controlsKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{{
			{Text: conversation.ButtonCancel},
			{Text: conversation.ButtonRestart},
		}},
		ResizeKeyboard: true,
	}
}

func confirmKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{{
			{Text: conversation.ButtonCancel},
			{Text: conversation.ButtonRestart},
			{Text: conversation.ButtonSave},
		}},
		ResizeKeyboard: true,
	}
}

// replyMarkup maps a dialogue reply onto the Telegram keyboard it asks for.
func replyMarkup(reply conversation.Reply) models.ReplyMarkup {
	switch reply.Keyboard {
	case conversation.KeyboardMonths:
		return monthsKeyboard()
	case conversation.KeyboardDays:
		return daysKeyboard(reply.Days)
	case conversation.KeyboardControls:
		return controlsKeyboard()
	case conversation.KeyboardConfirm:
		return confirmKeyboard()
	case conversation.KeyboardRemove:
		return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
	default:
		return nil
	}
}

// sendDialogueReply delivers a dialogue reply with its keyboard to a chat.
func sendDialogueReply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, reply conversation.Reply) {
	params := &bot.SendMessageParams{
		ChatID:              chatID,
		Text:                reply.Text,
		DisableNotification: true,
	}
	if markup := replyMarkup(reply); markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send dialogue reply", "error", err, "chat_id", chatID)
	}
}
