package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
)

// Sender sends plain-text messages through the bot API. It backs the
// digest dispatcher and the operator notifier.
type Sender struct {
	bot *bot.Bot
}

// NewSender wraps a bot instance as a message sender.
func NewSender(b *bot.Bot) *Sender {
	return &Sender{bot: b}
}

// SendMessage delivers text to a chat without a notification sound.
func (s *Sender) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:              chatID,
		Text:                text,
		DisableNotification: true,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}
