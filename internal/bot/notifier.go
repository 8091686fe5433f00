package bot

import (
	"context"
	"fmt"
	"log/slog"
)

// AdminNotifier delivers operational alerts to the operator's private chat.
// It implements the loader's Notifier interface.
type AdminNotifier struct {
	sender  Sender
	adminID int64
	logger  *slog.Logger
}

// NewAdminNotifier creates a notifier targeting the admin chat.
func NewAdminNotifier(sender Sender, adminID int64, logger *slog.Logger) *AdminNotifier {
	return &AdminNotifier{
		sender:  sender,
		adminID: adminID,
		logger:  logger.With("component", "notifier"),
	}
}

// Notify sends one alert message to the operator.
func (n *AdminNotifier) Notify(ctx context.Context, text string) error {
	if err := n.sender.SendMessage(ctx, n.adminID, text); err != nil {
		return fmt.Errorf("failed to notify operator: %w", err)
	}
	n.logger.InfoContext(ctx, "Operator notified")
	return nil
}
