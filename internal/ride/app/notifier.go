package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ridebird/rideproxy/internal/messaging/sender"
)

// Notifier tells both parties about a freshly created ride, from the proxy
// number, so replying immediately starts the anonymized conversation.
type Notifier struct {
	sender sender.Sender
	logger *slog.Logger
}

func NewNotifier(s sender.Sender, logger *slog.Logger) *Notifier {
	return &Notifier{sender: s, logger: logger}
}

// NotifyRideCreated sends the pickup notifications. Delivery failures are
// logged and never retried; the ride is already persisted either way.
func (n *Notifier) NotifyRideCreated(ctx context.Context, details *RideDetails) {
	scheduled := details.Ride.ScheduledAt.Format("Mon, 02 Jan 2006 15:04")

	customerText := fmt.Sprintf("%s will pick you up at %s. Reply to this message to contact the driver.",
		details.Driver.Name, scheduled)
	n.send(ctx, details.ProxyNumber.Number, details.Customer.Number, customerText)

	driverText := fmt.Sprintf("%s will wait for you at %s. Reply to this message to contact the customer.",
		details.Customer.Name, scheduled)
	n.send(ctx, details.ProxyNumber.Number, details.Driver.Number, driverText)
}

func (n *Notifier) send(ctx context.Context, originator, recipient, body string) {
	result, err := n.sender.Send(ctx, sender.SendRequest{
		Originator: originator,
		Recipient:  recipient,
		Body:       body,
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to send ride notification", "error", err, "recipient", recipient)
		return
	}
	if !result.Accepted {
		n.logger.WarnContext(ctx, "Ride notification rejected by provider",
			"recipient", recipient, "status_code", result.StatusCode, "provider_error", result.ErrorMessage)
	}
}
