package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ridebird/rideproxy/internal/ride/domain"
)

type allocatorTestComponents struct {
	allocator     *Allocator
	mockParties   *MockPartyRepository
	mockRides     *MockRideRepository
	mockNATS      *MockNATSClient
	customer      *domain.Party
	driver        *domain.Party
	proxyNumber   *domain.ProxyNumber
}

func setupAllocatorTest(t *testing.T) allocatorTestComponents {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockParties := new(MockPartyRepository)
	mockRides := new(MockRideRepository)
	mockNATS := new(MockNATSClient)

	return allocatorTestComponents{
		allocator:   NewAllocator(mockParties, mockRides, mockNATS, logger),
		mockParties: mockParties,
		mockRides:   mockRides,
		mockNATS:    mockNATS,
		customer: &domain.Party{
			ID: uuid.New(), Role: domain.RoleCustomer, Name: "Alice", Number: "+31970001",
		},
		driver: &domain.Party{
			ID: uuid.New(), Role: domain.RoleDriver, Name: "Bob", Number: "+31970002",
		},
		proxyNumber: &domain.ProxyNumber{
			ID: uuid.New(), Number: "+31970100",
		},
	}
}

func TestAllocator_CreateRide_Success(t *testing.T) {
	comps := setupAllocatorTest(t)
	ctx := context.Background()
	scheduledAt := time.Now().Add(time.Hour)

	comps.mockParties.On("FindByID", ctx, comps.customer.ID, domain.RoleCustomer).Return(comps.customer, nil).Once()
	comps.mockParties.On("FindByID", ctx, comps.driver.ID, domain.RoleDriver).Return(comps.driver, nil).Once()
	comps.mockRides.On("ListEligibleProxyNumbers", ctx, comps.customer.ID, comps.driver.ID).
		Return([]*domain.ProxyNumber{comps.proxyNumber}, nil).Once()
	comps.mockRides.On("CreateRide", ctx, mock.MatchedBy(func(r *domain.Ride) bool {
		return r.CustomerID == comps.customer.ID &&
			r.DriverID == comps.driver.ID &&
			r.ProxyNumberID == comps.proxyNumber.ID &&
			r.Start == "Central Station" &&
			r.Destination == "Airport"
	})).Return(nil).Once()
	comps.mockNATS.On("Publish", ctx, SubjectRideCreated, mock.Anything).Return(nil).Once()

	details, err := comps.allocator.CreateRide(ctx, comps.customer.ID, comps.driver.ID, "Central Station", "Airport", scheduledAt)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, comps.proxyNumber.Number, details.ProxyNumber.Number)
	assert.Equal(t, comps.customer.Number, details.Customer.Number)
	assert.Equal(t, comps.driver.Number, details.Driver.Number)

	comps.mockParties.AssertExpectations(t)
	comps.mockRides.AssertExpectations(t)
	comps.mockNATS.AssertExpectations(t)
}

func TestAllocator_CreateRide_PicksFirstEligibleNumber(t *testing.T) {
	comps := setupAllocatorTest(t)
	ctx := context.Background()
	second := &domain.ProxyNumber{ID: uuid.New(), Number: "+31970101"}

	comps.mockParties.On("FindByID", ctx, comps.customer.ID, domain.RoleCustomer).Return(comps.customer, nil).Once()
	comps.mockParties.On("FindByID", ctx, comps.driver.ID, domain.RoleDriver).Return(comps.driver, nil).Once()
	comps.mockRides.On("ListEligibleProxyNumbers", ctx, comps.customer.ID, comps.driver.ID).
		Return([]*domain.ProxyNumber{comps.proxyNumber, second}, nil).Once()
	comps.mockRides.On("CreateRide", ctx, mock.MatchedBy(func(r *domain.Ride) bool {
		return r.ProxyNumberID == comps.proxyNumber.ID
	})).Return(nil).Once()
	comps.mockNATS.On("Publish", ctx, SubjectRideCreated, mock.Anything).Return(nil).Once()

	details, err := comps.allocator.CreateRide(ctx, comps.customer.ID, comps.driver.ID, "A", "B", time.Now())
	require.NoError(t, err)
	assert.Equal(t, comps.proxyNumber.ID, details.ProxyNumber.ID)
}

func TestAllocator_CreateRide_CustomerNotFound(t *testing.T) {
	comps := setupAllocatorTest(t)
	ctx := context.Background()
	unknownID := uuid.New()

	comps.mockParties.On("FindByID", ctx, unknownID, domain.RoleCustomer).Return(nil, domain.ErrNotFound).Once()

	details, err := comps.allocator.CreateRide(ctx, unknownID, comps.driver.ID, "A", "B", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, details)
	comps.mockRides.AssertNotCalled(t, "CreateRide", mock.Anything, mock.Anything)
}

func TestAllocator_CreateRide_DriverRoleMismatch(t *testing.T) {
	comps := setupAllocatorTest(t)
	ctx := context.Background()

	// Passing a customer ID in the driver slot behaves like the original's
	// per-role lookup: not found.
	comps.mockParties.On("FindByID", ctx, comps.customer.ID, domain.RoleCustomer).Return(comps.customer, nil).Once()
	comps.mockParties.On("FindByID", ctx, comps.customer.ID, domain.RoleDriver).Return(nil, domain.ErrNotFound).Once()

	_, err := comps.allocator.CreateRide(ctx, comps.customer.ID, comps.customer.ID, "A", "B", time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAllocator_CreateRide_PoolExhausted(t *testing.T) {
	comps := setupAllocatorTest(t)
	ctx := context.Background()

	comps.mockParties.On("FindByID", ctx, comps.customer.ID, domain.RoleCustomer).Return(comps.customer, nil).Once()
	comps.mockParties.On("FindByID", ctx, comps.driver.ID, domain.RoleDriver).Return(comps.driver, nil).Once()
	comps.mockRides.On("ListEligibleProxyNumbers", ctx, comps.customer.ID, comps.driver.ID).
		Return([]*domain.ProxyNumber{}, nil).Once()

	details, err := comps.allocator.CreateRide(ctx, comps.customer.ID, comps.driver.ID, "A", "B", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPoolExhausted)
	assert.Nil(t, details)
	comps.mockRides.AssertNotCalled(t, "CreateRide", mock.Anything, mock.Anything)
	comps.mockNATS.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestAllocator_CreateRide_RetriesOnConflict(t *testing.T) {
	comps := setupAllocatorTest(t)
	ctx := context.Background()
	second := &domain.ProxyNumber{ID: uuid.New(), Number: "+31970101"}

	comps.mockParties.On("FindByID", ctx, comps.customer.ID, domain.RoleCustomer).Return(comps.customer, nil).Once()
	comps.mockParties.On("FindByID", ctx, comps.driver.ID, domain.RoleDriver).Return(comps.driver, nil).Once()

	// First attempt: the chosen number is snatched by a racer.
	comps.mockRides.On("ListEligibleProxyNumbers", ctx, comps.customer.ID, comps.driver.ID).
		Return([]*domain.ProxyNumber{comps.proxyNumber}, nil).Once()
	comps.mockRides.On("CreateRide", ctx, mock.MatchedBy(func(r *domain.Ride) bool {
		return r.ProxyNumberID == comps.proxyNumber.ID
	})).Return(domain.ErrConflict).Once()

	// Second attempt re-checks eligibility and succeeds with another number.
	comps.mockRides.On("ListEligibleProxyNumbers", ctx, comps.customer.ID, comps.driver.ID).
		Return([]*domain.ProxyNumber{second}, nil).Once()
	comps.mockRides.On("CreateRide", ctx, mock.MatchedBy(func(r *domain.Ride) bool {
		return r.ProxyNumberID == second.ID
	})).Return(nil).Once()
	comps.mockNATS.On("Publish", ctx, SubjectRideCreated, mock.Anything).Return(nil).Once()

	details, err := comps.allocator.CreateRide(ctx, comps.customer.ID, comps.driver.ID, "A", "B", time.Now())
	require.NoError(t, err)
	assert.Equal(t, second.ID, details.ProxyNumber.ID)
	comps.mockRides.AssertExpectations(t)
}

func TestAllocator_CreateRide_RetriesExhausted(t *testing.T) {
	comps := setupAllocatorTest(t)
	ctx := context.Background()

	comps.mockParties.On("FindByID", ctx, comps.customer.ID, domain.RoleCustomer).Return(comps.customer, nil).Once()
	comps.mockParties.On("FindByID", ctx, comps.driver.ID, domain.RoleDriver).Return(comps.driver, nil).Once()
	comps.mockRides.On("ListEligibleProxyNumbers", ctx, comps.customer.ID, comps.driver.ID).
		Return([]*domain.ProxyNumber{comps.proxyNumber}, nil).Times(maxAllocationAttempts)
	comps.mockRides.On("CreateRide", ctx, mock.Anything).Return(domain.ErrConflict).Times(maxAllocationAttempts)

	_, err := comps.allocator.CreateRide(ctx, comps.customer.ID, comps.driver.ID, "A", "B", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAllocator_CreateRide_StoreErrorPropagates(t *testing.T) {
	comps := setupAllocatorTest(t)
	ctx := context.Background()
	storeErr := errors.New("connection reset")

	comps.mockParties.On("FindByID", ctx, comps.customer.ID, domain.RoleCustomer).Return(comps.customer, nil).Once()
	comps.mockParties.On("FindByID", ctx, comps.driver.ID, domain.RoleDriver).Return(comps.driver, nil).Once()
	comps.mockRides.On("ListEligibleProxyNumbers", ctx, comps.customer.ID, comps.driver.ID).
		Return(nil, storeErr).Once()

	_, err := comps.allocator.CreateRide(ctx, comps.customer.ID, comps.driver.ID, "A", "B", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
}

func TestAllocator_CreateRide_NilBrokerSkipsPublishing(t *testing.T) {
	comps := setupAllocatorTest(t)
	ctx := context.Background()
	allocator := NewAllocator(comps.mockParties, comps.mockRides, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	comps.mockParties.On("FindByID", ctx, comps.customer.ID, domain.RoleCustomer).Return(comps.customer, nil).Once()
	comps.mockParties.On("FindByID", ctx, comps.driver.ID, domain.RoleDriver).Return(comps.driver, nil).Once()
	comps.mockRides.On("ListEligibleProxyNumbers", ctx, comps.customer.ID, comps.driver.ID).
		Return([]*domain.ProxyNumber{comps.proxyNumber}, nil).Once()
	comps.mockRides.On("CreateRide", ctx, mock.Anything).Return(nil).Once()

	_, err := allocator.CreateRide(ctx, comps.customer.ID, comps.driver.ID, "A", "B", time.Now())
	require.NoError(t, err)
}
