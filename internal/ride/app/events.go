package app

import (
	"time"

	"github.com/google/uuid"
)

// NATS subjects for ride lifecycle events. Publishing is fire-and-forget and
// disabled when no broker is configured.
const (
	SubjectRideCreated      = "rides.created"
	SubjectMessageForwarded = "rides.message.forwarded"
)

// RideCreatedEvent is published after a ride has been persisted.
type RideCreatedEvent struct {
	RideID      uuid.UUID `json:"ride_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	DriverID    uuid.UUID `json:"driver_id"`
	ProxyNumber string    `json:"proxy_number"`
	ScheduledAt time.Time `json:"scheduled_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// MessageForwardedEvent is published after an inbound message has been
// relayed to the counterpart. The message body is deliberately omitted:
// transcripts are not persisted anywhere in this system.
type MessageForwardedEvent struct {
	RideID      uuid.UUID `json:"ride_id"`
	ProxyNumber string    `json:"proxy_number"`
	ForwardedAt time.Time `json:"forwarded_at"`
}
