package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/ridebird/rideproxy/internal/messaging/sender"
	"github.com/ridebird/rideproxy/internal/platform/messagebroker"
	"github.com/ridebird/rideproxy/internal/ride/app"
	"github.com/ridebird/rideproxy/internal/ride/domain"
)

// WebhookHandler receives inbound events from the communication provider and
// relays them to the counterpart resolved by the Router.
type WebhookHandler struct {
	router     *app.Router
	sender     sender.Sender
	natsClient messagebroker.NATSClient // optional, may be nil
	logger     *slog.Logger
	validate   *validator.Validate
}

func NewWebhookHandler(router *app.Router, s sender.Sender, natsClient messagebroker.NATSClient, logger *slog.Logger, validate *validator.Validate) *WebhookHandler {
	return &WebhookHandler{
		router:     router,
		sender:     s,
		natsClient: natsClient,
		logger:     logger.With("handler", "webhooks"),
		validate:   validate,
	}
}

// RegisterRoutes registers webhook routes with the given router.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/messages", h.handleInboundMessage)
	r.Get("/webhooks/voice", h.handleInboundCall)
}

// handleInboundMessage forwards an inbound message to the counterpart. An
// unmatched event is acknowledged with an empty 200 so no routing detail
// leaks back to the provider.
func (h *WebhookHandler) handleInboundMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req MessageWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode inbound message webhook", "error", err)
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Failed to validate inbound message webhook", "error", err)
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	forward, err := h.router.ResolveMessage(ctx, req.Recipient, req.Originator, req.Payload)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRoute) {
			// Silent acknowledgment; the sender is not told anything about
			// why the message went nowhere.
			w.WriteHeader(http.StatusOK)
			return
		}
		logger.ErrorContext(ctx, "Failed to resolve inbound message", "error", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	result, err := h.sender.Send(ctx, sender.SendRequest{
		Originator: forward.Originator,
		Recipient:  forward.Destination,
		Body:       forward.Body,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to forward message", "error", err, "ride_id", forward.RideID)
	} else if !result.Accepted {
		logger.WarnContext(ctx, "Provider rejected forwarded message",
			"ride_id", forward.RideID, "status_code", result.StatusCode, "provider_error", result.ErrorMessage)
	} else {
		h.publishMessageForwarded(ctx, forward)
	}

	// The provider gets a 200 regardless of delivery outcome; delivery is
	// fire-and-forget from the webhook's point of view.
	w.WriteHeader(http.StatusOK)
}

// handleInboundCall answers with a call flow: a masked transfer to the
// counterpart, or a spoken rejection when the caller cannot be matched.
func (h *WebhookHandler) handleInboundCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	source := r.URL.Query().Get("source")
	destination := r.URL.Query().Get("destination")
	if source == "" || destination == "" {
		logger.WarnContext(ctx, "Inbound call webhook missing source or destination")
		h.writeCallFlow(ctx, w, func() ([]byte, error) { return renderSay(app.RejectReason) })
		return
	}

	action, err := h.router.ResolveCall(ctx, destination, source)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to resolve inbound call", "error", err)
		http.Error(w, "Failed to process call", http.StatusInternalServerError)
		return
	}

	if action.Transfer != nil {
		h.writeCallFlow(ctx, w, func() ([]byte, error) {
			return renderTransfer(action.Transfer.Destination, action.Transfer.Mask)
		})
		return
	}
	h.writeCallFlow(ctx, w, func() ([]byte, error) { return renderSay(action.Reject.Reason) })
}

func (h *WebhookHandler) writeCallFlow(ctx context.Context, w http.ResponseWriter, render func() ([]byte, error)) {
	body, err := render()
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to render call flow", "error", err)
		http.Error(w, "Failed to render call flow", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(body)
}

func (h *WebhookHandler) publishMessageForwarded(ctx context.Context, forward *app.Forward) {
	if h.natsClient == nil {
		return
	}
	event := app.MessageForwardedEvent{
		RideID:      forward.RideID,
		ProxyNumber: forward.Originator,
		ForwardedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to marshal message.forwarded event", "error", err, "ride_id", event.RideID)
		return
	}
	if err := h.natsClient.Publish(ctx, app.SubjectMessageForwarded, data); err != nil {
		h.logger.WarnContext(ctx, "Failed to publish message.forwarded event", "error", err, "ride_id", event.RideID)
	}
}
