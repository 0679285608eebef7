package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ridebird/rideproxy/internal/ride/domain"
)

// RejectReason is spoken to callers whose number cannot be matched to a ride.
const RejectReason = "Sorry, we cannot identify your transaction. Make sure you call in from the number you registered."

// Router resolves inbound events on a proxy number to the correct
// counterpart. It is read-only and holds no session state between events.
type Router struct {
	rides  domain.RideRepository
	logger *slog.Logger
}

func NewRouter(rides domain.RideRepository, logger *slog.Logger) *Router {
	return &Router{rides: rides, logger: logger}
}

// Forward is the routing instruction for an inbound message: relay Body to
// Destination, originating from the proxy number so anonymity is preserved in
// both directions.
type Forward struct {
	RideID      uuid.UUID
	Originator  string // the proxy number
	Destination string // the counterpart's real number
	Body        string
}

// Transfer instructs the call-control collaborator to bridge the call to the
// counterpart with caller-ID masking enabled.
type Transfer struct {
	Destination string
	Mask        bool
}

// Reject instructs the call-control collaborator to speak a rejection.
type Reject struct {
	Reason string
}

// CallAction is the tagged result of call resolution: exactly one of
// Transfer or Reject is set.
type CallAction struct {
	Transfer *Transfer
	Reject   *Reject
}

// ResolveMessage matches an inbound message to the most recent ride on
// (proxyNumber, originator) and returns the forwarding instruction. Returns
// domain.ErrUnknownRoute when no ride matches; the caller decides the safe
// fallback.
func (r *Router) ResolveMessage(ctx context.Context, proxyNumber, originator, body string) (*Forward, error) {
	route, err := r.rides.FindRouteByProxyAndPartyNumber(ctx, proxyNumber, originator)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRoute) {
			r.logger.WarnContext(ctx, "Could not find a ride for originator on proxy number", "proxy_number", proxyNumber)
			messagesRoutedCounter.WithLabelValues("unknown_route").Inc()
			return nil, domain.ErrUnknownRoute
		}
		messagesRoutedCounter.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("resolving message route: %w", err)
	}

	destination, ok := route.Counterpart(originator)
	if !ok {
		// The store matched on originator, so this indicates corrupted data.
		messagesRoutedCounter.WithLabelValues("unknown_route").Inc()
		return nil, domain.ErrUnknownRoute
	}

	messagesRoutedCounter.WithLabelValues("forwarded").Inc()
	return &Forward{
		RideID:      route.RideID,
		Originator:  route.ProxyNumber,
		Destination: destination,
		Body:        body,
	}, nil
}

// ResolveCall matches an inbound call to the most recent ride on
// (proxyNumber, source). Unknown callers get a spoken rejection rather than
// an error; only store failures surface as errors.
func (r *Router) ResolveCall(ctx context.Context, proxyNumber, source string) (*CallAction, error) {
	route, err := r.rides.FindRouteByProxyAndPartyNumber(ctx, proxyNumber, source)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRoute) {
			r.logger.WarnContext(ctx, "Rejecting call: no ride for source on proxy number", "proxy_number", proxyNumber)
			callsRoutedCounter.WithLabelValues("rejected").Inc()
			return &CallAction{Reject: &Reject{Reason: RejectReason}}, nil
		}
		callsRoutedCounter.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("resolving call route: %w", err)
	}

	destination, ok := route.Counterpart(source)
	if !ok {
		callsRoutedCounter.WithLabelValues("rejected").Inc()
		return &CallAction{Reject: &Reject{Reason: RejectReason}}, nil
	}

	r.logger.InfoContext(ctx, "Transferring call to counterpart", "ride_id", route.RideID, "proxy_number", route.ProxyNumber)
	callsRoutedCounter.WithLabelValues("transferred").Inc()
	return &CallAction{Transfer: &Transfer{Destination: destination, Mask: true}}, nil
}
