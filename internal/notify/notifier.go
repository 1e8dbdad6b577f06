package notify

import (
	"context"

	"github.com/votewatch/election-alerts/internal/models"
)

type DeliveryResult struct {
	Delivered bool
	Err       error
}

// Notifier is the transport boundary. Concrete SMS/WhatsApp/email/push/voice
// gateways live behind it; the engine never sees vendor APIs. Each call is
// one recipient on one channel, with no batching contract.
type Notifier interface {
	SendChannel(ctx context.Context, channel models.Channel, recipient models.Recipient, alert *models.Alert) DeliveryResult
}
