package sender

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// MockSender is a simulated message provider for development and testing.
type MockSender struct {
	logger       *slog.Logger
	name         string
	failRate     float64 // chance to simulate failure (0.0 to 1.0)
	minLatencyMs int
	maxLatencyMs int
}

// NewMockSender creates a new MockSender.
func NewMockSender(logger *slog.Logger, name string, failRate float64, minLatencyMs, maxLatencyMs int) Sender {
	if name == "" {
		name = "mock-sender"
	}
	return &MockSender{
		logger:       logger.With("sender", name),
		name:         name,
		failRate:     failRate,
		minLatencyMs: minLatencyMs,
		maxLatencyMs: maxLatencyMs,
	}
}

func (s *MockSender) GetName() string {
	return s.name
}

func (s *MockSender) Send(ctx context.Context, request SendRequest) (*SendResult, error) {
	if s.maxLatencyMs > s.minLatencyMs {
		latency := s.minLatencyMs + rand.Intn(s.maxLatencyMs-s.minLatencyMs+1)
		time.Sleep(time.Duration(latency) * time.Millisecond)
	}

	s.logger.InfoContext(ctx, "MockSender: Send called",
		"originator", request.Originator,
		"recipient", request.Recipient,
		"body_len", len(request.Body))

	if rand.Float64() < s.failRate {
		errMsg := fmt.Sprintf("MockSender simulated failure for recipient %s", request.Recipient)
		s.logger.WarnContext(ctx, errMsg)
		return &SendResult{
			Accepted:     false,
			StatusCode:   500,
			ErrorMessage: errMsg,
		}, nil
	}

	providerMsgID := uuid.NewString()
	s.logger.InfoContext(ctx, "MockSender: message sent (simulated)", "provider_message_id", providerMsgID)

	return &SendResult{
		ProviderMessageID: providerMsgID,
		Accepted:          true,
		StatusCode:        201,
	}, nil
}
