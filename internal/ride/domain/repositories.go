package domain

import (
	"context"

	"github.com/google/uuid"
)

// PartyRepository defines read access to registered parties.
type PartyRepository interface {
	// FindByID returns the party with the given ID and role, or ErrNotFound.
	// The role acts like the original's separate customer/driver lookups: a
	// driver ID asked for as a customer is not found.
	FindByID(ctx context.Context, id uuid.UUID, role PartyRole) (*Party, error)
	List(ctx context.Context, role PartyRole) ([]*Party, error)
}

// ProxyNumberRepository defines read access to the masking-number pool.
type ProxyNumberRepository interface {
	List(ctx context.Context) ([]*ProxyNumber, error)
}

// RideRepository owns the ride table and enforces the allocation invariant:
// a proxy number must never serve two rides that share a party.
type RideRepository interface {
	// ListEligibleProxyNumbers returns pool numbers not bound to any existing
	// ride that touches either party, least recently assigned first.
	ListEligibleProxyNumbers(ctx context.Context, customerID, driverID uuid.UUID) ([]*ProxyNumber, error)

	// CreateRide persists the ride. The eligibility of ride.ProxyNumberID for
	// the ride's pair is re-checked atomically with the insert; a lost race
	// returns ErrConflict and writes nothing.
	CreateRide(ctx context.Context, ride *Ride) error

	// FindRouteByProxyAndPartyNumber returns the most recently created ride
	// whose proxy number matches and whose customer or driver real number is
	// partyNumber, or ErrUnknownRoute.
	FindRouteByProxyAndPartyNumber(ctx context.Context, proxyNumber, partyNumber string) (*RideRoute, error)

	// List returns all rides joined with party names and the proxy number,
	// newest first. Read-only, for the admin surface.
	List(ctx context.Context) ([]*RideSummary, error)
}
