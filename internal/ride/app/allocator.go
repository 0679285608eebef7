package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ridebird/rideproxy/internal/platform/messagebroker"
	"github.com/ridebird/rideproxy/internal/ride/domain"
)

// maxAllocationAttempts bounds the optimistic retry loop around the
// transactional check-and-insert. Each attempt re-validates eligibility, so a
// losing racer against an exhausted pool ends in ErrPoolExhausted rather than
// a duplicate binding.
const maxAllocationAttempts = 3

// Allocator assigns a collision-free proxy number to a newly requested ride
// and persists the ride. It holds no state between calls.
type Allocator struct {
	parties    domain.PartyRepository
	rides      domain.RideRepository
	natsClient messagebroker.NATSClient // optional, may be nil
	logger     *slog.Logger
}

func NewAllocator(parties domain.PartyRepository, rides domain.RideRepository, natsClient messagebroker.NATSClient, logger *slog.Logger) *Allocator {
	return &Allocator{
		parties:    parties,
		rides:      rides,
		natsClient: natsClient,
		logger:     logger,
	}
}

// RideDetails is the allocation result: the persisted ride plus the resolved
// proxy number and both parties, so the caller can compose notifications.
type RideDetails struct {
	Ride        *domain.Ride
	ProxyNumber *domain.ProxyNumber
	Customer    *domain.Party
	Driver      *domain.Party
}

// CreateRide resolves both parties, picks an eligible proxy number and
// persists the ride. Returns domain.ErrNotFound for a bad party ID and
// domain.ErrPoolExhausted when no number is free for the pair.
func (a *Allocator) CreateRide(ctx context.Context, customerID, driverID uuid.UUID, start, destination string, scheduledAt time.Time) (*RideDetails, error) {
	startedAt := time.Now()
	defer func() {
		allocationDurationHist.Observe(time.Since(startedAt).Seconds())
	}()

	customer, err := a.parties.FindByID(ctx, customerID, domain.RoleCustomer)
	if err != nil {
		allocationFailuresCounter.WithLabelValues(failureReason(err)).Inc()
		return nil, fmt.Errorf("resolving customer %s: %w", customerID, err)
	}
	driver, err := a.parties.FindByID(ctx, driverID, domain.RoleDriver)
	if err != nil {
		allocationFailuresCounter.WithLabelValues(failureReason(err)).Inc()
		return nil, fmt.Errorf("resolving driver %s: %w", driverID, err)
	}

	var details *RideDetails
	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		eligible, err := a.rides.ListEligibleProxyNumbers(ctx, customerID, driverID)
		if err != nil {
			allocationFailuresCounter.WithLabelValues("store_error").Inc()
			return nil, fmt.Errorf("listing eligible proxy numbers: %w", err)
		}
		if len(eligible) == 0 {
			a.logger.WarnContext(ctx, "Proxy number pool exhausted for pair",
				"customer_id", customerID, "driver_id", driverID)
			allocationFailuresCounter.WithLabelValues("pool_exhausted").Inc()
			return nil, domain.ErrPoolExhausted
		}

		// Least recently assigned number first; the repository orders for us.
		chosen := eligible[0]
		ride := domain.NewRide(uuid.New(), customerID, driverID, chosen.ID, start, destination, scheduledAt)

		err = a.rides.CreateRide(ctx, ride)
		if err == nil {
			details = &RideDetails{Ride: ride, ProxyNumber: chosen, Customer: customer, Driver: driver}
			break
		}
		if errors.Is(err, domain.ErrConflict) {
			a.logger.InfoContext(ctx, "Allocation lost a race, re-checking eligibility",
				"attempt", attempt, "proxy_number", chosen.Number)
			allocationFailuresCounter.WithLabelValues("conflict").Inc()
			continue
		}
		allocationFailuresCounter.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("creating ride: %w", err)
	}
	if details == nil {
		allocationFailuresCounter.WithLabelValues("conflict").Inc()
		return nil, fmt.Errorf("allocation retries exhausted after %d attempts: %w", maxAllocationAttempts, domain.ErrConflict)
	}

	ridesCreatedCounter.Inc()
	a.logger.InfoContext(ctx, "Ride allocated",
		"ride_id", details.Ride.ID,
		"proxy_number", details.ProxyNumber.Number,
		"customer_id", customerID,
		"driver_id", driverID)

	a.publishRideCreated(ctx, details)
	return details, nil
}

func (a *Allocator) publishRideCreated(ctx context.Context, details *RideDetails) {
	if a.natsClient == nil {
		return
	}
	event := RideCreatedEvent{
		RideID:      details.Ride.ID,
		CustomerID:  details.Ride.CustomerID,
		DriverID:    details.Ride.DriverID,
		ProxyNumber: details.ProxyNumber.Number,
		ScheduledAt: details.Ride.ScheduledAt,
		CreatedAt:   details.Ride.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to marshal ride.created event", "error", err, "ride_id", event.RideID)
		return
	}
	if err := a.natsClient.Publish(ctx, SubjectRideCreated, data); err != nil {
		a.logger.WarnContext(ctx, "Failed to publish ride.created event", "error", err, "ride_id", event.RideID)
	}
}

func failureReason(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "not_found"
	}
	return "store_error"
}
