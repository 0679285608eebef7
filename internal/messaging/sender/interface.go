package sender

import "context"

// SendRequest carries one outbound message. Originator is the proxy number
// the message must appear to come from; the counterpart's real number never
// leaks into the originator field.
type SendRequest struct {
	Originator string
	Recipient  string
	Body       string
}

// SendResult holds the outcome of a send attempt.
type SendResult struct {
	ProviderMessageID string
	Accepted          bool
	StatusCode        int
	ErrorMessage      string
}

// Sender is the abstract outbound-message capability. Delivery failures are
// logged by callers and never retried here.
type Sender interface {
	Send(ctx context.Context, request SendRequest) (*SendResult, error)
	GetName() string
}
