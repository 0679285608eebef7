package domain

import (
	"time"

	"github.com/google/uuid"
)

// PartyRole distinguishes the two sides of a ride. Customers and drivers
// share the same record shape but are never interchangeable in a ride.
type PartyRole string

const (
	RoleCustomer PartyRole = "customer"
	RoleDriver   PartyRole = "driver"
)

// Party represents a registered customer or driver. Parties are created
// out-of-band (registration) and are immutable as far as this engine is
// concerned.
type Party struct {
	ID        uuid.UUID `json:"id"`
	Role      PartyRole `json:"role"`
	Name      string    `json:"name"`
	Number    string    `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}

// ProxyNumber is a member of the administrator-provisioned pool of masking
// numbers. The pool is extended out-of-band; this engine never deletes from it.
type ProxyNumber struct {
	ID        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}

// Ride binds exactly one customer, one driver and one proxy number for one
// trip. Rides are append-only: there is no closing lifecycle, so a proxy
// number's eligibility only shrinks until the pool is extended or pruned
// externally.
type Ride struct {
	ID            uuid.UUID `json:"id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	DriverID      uuid.UUID `json:"driver_id"`
	ProxyNumberID uuid.UUID `json:"proxy_number_id"`
	Start         string    `json:"start"`
	Destination   string    `json:"destination"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewRide creates a Ride with a fresh creation timestamp.
// ID is generated by the caller.
func NewRide(id, customerID, driverID, proxyNumberID uuid.UUID, start, destination string, scheduledAt time.Time) *Ride {
	return &Ride{
		ID:            id,
		CustomerID:    customerID,
		DriverID:      driverID,
		ProxyNumberID: proxyNumberID,
		Start:         start,
		Destination:   destination,
		ScheduledAt:   scheduledAt,
		CreatedAt:     time.Now().UTC(),
	}
}

// RideRoute is the routing view of a ride: the three numbers an inbound
// event needs to be matched and forwarded.
type RideRoute struct {
	RideID         uuid.UUID `json:"ride_id"`
	CustomerNumber string    `json:"customer_number"`
	DriverNumber   string    `json:"driver_number"`
	ProxyNumber    string    `json:"proxy_number"`
	CreatedAt      time.Time `json:"created_at"`
}

// Counterpart returns the real number on the other side of the pair for the
// given originator. The second return value is false when the originator is
// neither party of this ride.
func (r *RideRoute) Counterpart(originator string) (string, bool) {
	switch originator {
	case r.CustomerNumber:
		return r.DriverNumber, true
	case r.DriverNumber:
		return r.CustomerNumber, true
	default:
		return "", false
	}
}

// RideSummary is the denormalized listing row for the admin surface.
type RideSummary struct {
	ID           uuid.UUID `json:"id"`
	CustomerName string    `json:"customer_name"`
	DriverName   string    `json:"driver_name"`
	Start        string    `json:"start"`
	Destination  string    `json:"destination"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	ProxyNumber  string    `json:"proxy_number"`
	CreatedAt    time.Time `json:"created_at"`
}
