// Package memory provides a mutex-guarded in-memory implementation of the
// ride store ports. It backs local development without Postgres and the
// concurrency tests for the allocation invariant.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ridebird/rideproxy/internal/ride/domain"
)

type state struct {
	mu           sync.Mutex
	parties      map[uuid.UUID]*domain.Party
	proxyNumbers map[uuid.UUID]*domain.ProxyNumber
	rides        []*domain.Ride
}

// Store holds all entities behind one mutex and exposes a view per domain port.
type Store struct {
	state *state
}

func NewStore() *Store {
	return &Store{state: &state{
		parties:      make(map[uuid.UUID]*domain.Party),
		proxyNumbers: make(map[uuid.UUID]*domain.ProxyNumber),
	}}
}

func (s *Store) Parties() domain.PartyRepository           { return &partyView{s.state} }
func (s *Store) ProxyNumbers() domain.ProxyNumberRepository { return &proxyNumberView{s.state} }
func (s *Store) Rides() domain.RideRepository              { return &rideView{s.state} }

// AddParty registers a party. Registration is out-of-band for the engine, so
// this is only reachable from seeding and tests.
func (s *Store) AddParty(role domain.PartyRole, name, number string) *domain.Party {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	p := &domain.Party{
		ID:        uuid.New(),
		Role:      role,
		Name:      name,
		Number:    number,
		CreatedAt: time.Now().UTC(),
	}
	s.state.parties[p.ID] = p
	return p
}

// AddProxyNumber extends the masking-number pool.
func (s *Store) AddProxyNumber(number string) *domain.ProxyNumber {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	pn := &domain.ProxyNumber{
		ID:        uuid.New(),
		Number:    number,
		CreatedAt: time.Now().UTC(),
	}
	s.state.proxyNumbers[pn.ID] = pn
	return pn
}

type partyView struct{ *state }

func (v *partyView) FindByID(ctx context.Context, id uuid.UUID, role domain.PartyRole) (*domain.Party, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.parties[id]
	if !ok || p.Role != role {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (v *partyView) List(ctx context.Context, role domain.PartyRole) ([]*domain.Party, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var parties []*domain.Party
	for _, p := range v.parties {
		if p.Role == role {
			cp := *p
			parties = append(parties, &cp)
		}
	}
	sort.Slice(parties, func(i, j int) bool { return parties[i].Name < parties[j].Name })
	return parties, nil
}

type proxyNumberView struct{ *state }

func (v *proxyNumberView) List(ctx context.Context) ([]*domain.ProxyNumber, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var numbers []*domain.ProxyNumber
	for _, pn := range v.proxyNumbers {
		cp := *pn
		numbers = append(numbers, &cp)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i].Number < numbers[j].Number })
	return numbers, nil
}

type rideView struct{ *state }

func (v *rideView) ListEligibleProxyNumbers(ctx context.Context, customerID, driverID uuid.UUID) ([]*domain.ProxyNumber, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	lastAssigned := make(map[uuid.UUID]time.Time)
	excluded := make(map[uuid.UUID]bool)
	for _, r := range v.rides {
		if r.CreatedAt.After(lastAssigned[r.ProxyNumberID]) {
			lastAssigned[r.ProxyNumberID] = r.CreatedAt
		}
		if touchesPair(r, customerID, driverID) {
			excluded[r.ProxyNumberID] = true
		}
	}

	var numbers []*domain.ProxyNumber
	for _, pn := range v.proxyNumbers {
		if !excluded[pn.ID] {
			cp := *pn
			numbers = append(numbers, &cp)
		}
	}
	// Least recently assigned first, never-assigned numbers before all others.
	sort.Slice(numbers, func(i, j int) bool {
		ti, tj := lastAssigned[numbers[i].ID], lastAssigned[numbers[j].ID]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return numbers[i].Number < numbers[j].Number
	})
	return numbers, nil
}

// CreateRide re-checks eligibility and appends under one lock, making the
// check-and-insert atomic with respect to concurrent allocations.
func (v *rideView) CreateRide(ctx context.Context, ride *domain.Ride) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.proxyNumbers[ride.ProxyNumberID]; !ok {
		return domain.ErrNotFound
	}
	for _, r := range v.rides {
		if r.ProxyNumberID == ride.ProxyNumberID && touchesPair(r, ride.CustomerID, ride.DriverID) {
			return domain.ErrConflict
		}
	}
	cp := *ride
	v.rides = append(v.rides, &cp)
	return nil
}

func (v *rideView) FindRouteByProxyAndPartyNumber(ctx context.Context, proxyNumber, partyNumber string) (*domain.RideRoute, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Newest matching ride wins; rides are appended in creation order.
	for i := len(v.rides) - 1; i >= 0; i-- {
		r := v.rides[i]
		pn, ok := v.proxyNumbers[r.ProxyNumberID]
		if !ok || pn.Number != proxyNumber {
			continue
		}
		customer, driver := v.parties[r.CustomerID], v.parties[r.DriverID]
		if customer == nil || driver == nil {
			continue
		}
		if customer.Number != partyNumber && driver.Number != partyNumber {
			continue
		}
		return &domain.RideRoute{
			RideID:         r.ID,
			CustomerNumber: customer.Number,
			DriverNumber:   driver.Number,
			ProxyNumber:    pn.Number,
			CreatedAt:      r.CreatedAt,
		}, nil
	}
	return nil, domain.ErrUnknownRoute
}

func (v *rideView) List(ctx context.Context) ([]*domain.RideSummary, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	summaries := make([]*domain.RideSummary, 0, len(v.rides))
	for i := len(v.rides) - 1; i >= 0; i-- {
		r := v.rides[i]
		customer, driver := v.parties[r.CustomerID], v.parties[r.DriverID]
		pn := v.proxyNumbers[r.ProxyNumberID]
		if customer == nil || driver == nil || pn == nil {
			continue
		}
		summaries = append(summaries, &domain.RideSummary{
			ID:           r.ID,
			CustomerName: customer.Name,
			DriverName:   driver.Name,
			Start:        r.Start,
			Destination:  r.Destination,
			ScheduledAt:  r.ScheduledAt,
			ProxyNumber:  pn.Number,
			CreatedAt:    r.CreatedAt,
		})
	}
	return summaries, nil
}

func touchesPair(r *domain.Ride, customerID, driverID uuid.UUID) bool {
	return r.CustomerID == customerID || r.DriverID == customerID ||
		r.CustomerID == driverID || r.DriverID == driverID
}
