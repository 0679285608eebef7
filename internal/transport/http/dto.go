package http

import (
	"time"

	"github.com/google/uuid"
)

// CreateRideRequest is the admin request to pair a customer and a driver.
// scheduled_at is accepted as any RFC 3339 timestamp, past or future.
type CreateRideRequest struct {
	CustomerID  uuid.UUID `json:"customer_id" validate:"required"`
	DriverID    uuid.UUID `json:"driver_id" validate:"required"`
	Start       string    `json:"start" validate:"required"`
	Destination string    `json:"destination" validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// CreateRideResponse returns the persisted ride and the masked number both
// parties will use. Real numbers are never exposed here.
type CreateRideResponse struct {
	RideID      uuid.UUID `json:"ride_id"`
	ProxyNumber string    `json:"proxy_number"`
	Start       string    `json:"start"`
	Destination string    `json:"destination"`
	ScheduledAt time.Time `json:"scheduled_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// MessageWebhookRequest is the inbound message event posted by the
// communication provider: originator is the sender's real number, recipient
// the proxy number the message was addressed to.
type MessageWebhookRequest struct {
	Originator string `json:"originator" validate:"required"`
	Recipient  string `json:"recipient" validate:"required"`
	Payload    string `json:"payload"`
}
