package notify

import (
	"context"
	"log/slog"

	"github.com/votewatch/election-alerts/internal/models"
)

// LogNotifier writes deliveries to the log instead of a gateway. Used in
// development and as the default when no transport is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SendChannel(ctx context.Context, channel models.Channel, recipient models.Recipient, alert *models.Alert) DeliveryResult {
	slog.Info("delivering alert",
		"channel", channel,
		"recipient", recipient.ID,
		"address", recipient.Address(channel),
		"alert", alert.ID,
		"severity", alert.Severity,
	)
	return DeliveryResult{Delivered: true}
}
