package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// MessageBirdSender submits messages through the MessageBird REST API.
type MessageBirdSender struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewMessageBirdSender(logger *slog.Logger, baseURL, apiKey string, httpClient *http.Client) *MessageBirdSender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &MessageBirdSender{
		logger:     logger.With("sender", "messagebird"),
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// messageBirdSendRequest is the POST /messages body.
type messageBirdSendRequest struct {
	Originator string   `json:"originator"`
	Recipients []string `json:"recipients"`
	Body       string   `json:"body"`
}

// messageBirdSendResponse covers the fields we care about from a 201 response.
type messageBirdSendResponse struct {
	ID string `json:"id"`
}

type messageBirdErrorResponse struct {
	Errors []struct {
		Code        int    `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

func (s *MessageBirdSender) GetName() string {
	return "messagebird"
}

func (s *MessageBirdSender) Send(ctx context.Context, request SendRequest) (*SendResult, error) {
	s.logger.InfoContext(ctx, "MessageBirdSender: Send called", "originator", request.Originator, "recipient", request.Recipient)

	reqBody := messageBirdSendRequest{
		Originator: request.Originator,
		Recipients: []string{request.Recipient},
		Body:       request.Body,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal MessageBird request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create MessageBird HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "AccessKey "+s.apiKey)

	httpResp, err := s.httpClient.Do(httpReq)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to send request to MessageBird", "error", err)
		return nil, fmt.Errorf("failed to send request to MessageBird: %w", err)
	}
	defer httpResp.Body.Close()

	respBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read MessageBird response body", "status_code", httpResp.StatusCode, "error", err)
		return nil, fmt.Errorf("failed to read MessageBird response (status %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		var resp messageBirdSendResponse
		if err := json.Unmarshal(respBytes, &resp); err != nil {
			s.logger.WarnContext(ctx, "MessageBird returned success but response body did not parse", "error", err, "body", string(respBytes))
		}
		s.logger.InfoContext(ctx, "MessageBird accepted message", "provider_message_id", resp.ID)
		return &SendResult{
			ProviderMessageID: resp.ID,
			Accepted:          true,
			StatusCode:        httpResp.StatusCode,
		}, nil
	}

	var errResp messageBirdErrorResponse
	errMsg := fmt.Sprintf("MessageBird API error (status %d)", httpResp.StatusCode)
	if err := json.Unmarshal(respBytes, &errResp); err == nil && len(errResp.Errors) > 0 {
		errMsg = fmt.Sprintf("%s: %s", errMsg, errResp.Errors[0].Description)
	}
	s.logger.ErrorContext(ctx, "MessageBird rejected message", "status_code", httpResp.StatusCode, "body", string(respBytes))
	return &SendResult{
		Accepted:     false,
		StatusCode:   httpResp.StatusCode,
		ErrorMessage: errMsg,
	}, nil
}
