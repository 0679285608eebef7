package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"

	"github.com/ridebird/rideproxy/internal/messaging/sender"
	"github.com/ridebird/rideproxy/internal/ride/domain"
)

type MockPartyRepository struct {
	mock.Mock
}

func (m *MockPartyRepository) FindByID(ctx context.Context, id uuid.UUID, role domain.PartyRole) (*domain.Party, error) {
	args := m.Called(ctx, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Party), args.Error(1)
}

func (m *MockPartyRepository) List(ctx context.Context, role domain.PartyRole) ([]*domain.Party, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Party), args.Error(1)
}

type MockRideRepository struct {
	mock.Mock
}

func (m *MockRideRepository) ListEligibleProxyNumbers(ctx context.Context, customerID, driverID uuid.UUID) ([]*domain.ProxyNumber, error) {
	args := m.Called(ctx, customerID, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ProxyNumber), args.Error(1)
}

func (m *MockRideRepository) CreateRide(ctx context.Context, ride *domain.Ride) error {
	args := m.Called(ctx, ride)
	return args.Error(0)
}

func (m *MockRideRepository) FindRouteByProxyAndPartyNumber(ctx context.Context, proxyNumber, partyNumber string) (*domain.RideRoute, error) {
	args := m.Called(ctx, proxyNumber, partyNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RideRoute), args.Error(1)
}

func (m *MockRideRepository) List(ctx context.Context) ([]*domain.RideSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RideSummary), args.Error(1)
}

type MockNATSClient struct {
	mock.Mock
}

func (m *MockNATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func (m *MockNATSClient) Subscribe(ctx context.Context, subject string, queueGroup string, handler nats.MsgHandler) (*nats.Subscription, error) {
	args := m.Called(ctx, subject, queueGroup, handler)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nats.Subscription), args.Error(1)
}

func (m *MockNATSClient) Close() {
	m.Called()
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, request sender.SendRequest) (*sender.SendResult, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sender.SendResult), args.Error(1)
}

func (m *MockSender) GetName() string {
	return "mock"
}
