package app

import (
	"context"
	"log/slog"

	"github.com/ridebird/rideproxy/internal/ride/domain"
)

// Admin exposes the read-only listings behind the administration surface.
// None of these queries participate in allocation or routing decisions.
type Admin struct {
	parties      domain.PartyRepository
	proxyNumbers domain.ProxyNumberRepository
	rides        domain.RideRepository
	logger       *slog.Logger
}

func NewAdmin(parties domain.PartyRepository, proxyNumbers domain.ProxyNumberRepository, rides domain.RideRepository, logger *slog.Logger) *Admin {
	return &Admin{
		parties:      parties,
		proxyNumbers: proxyNumbers,
		rides:        rides,
		logger:       logger,
	}
}

func (a *Admin) ListRides(ctx context.Context) ([]*domain.RideSummary, error) {
	return a.rides.List(ctx)
}

func (a *Admin) ListParties(ctx context.Context, role domain.PartyRole) ([]*domain.Party, error) {
	return a.parties.List(ctx, role)
}

func (a *Admin) ListProxyNumbers(ctx context.Context) ([]*domain.ProxyNumber, error) {
	return a.proxyNumbers.List(ctx)
}
