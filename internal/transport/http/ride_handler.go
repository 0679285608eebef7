package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/ridebird/rideproxy/internal/ride/app"
	"github.com/ridebird/rideproxy/internal/ride/domain"
)

// RideHandler serves ride creation and the admin listings.
type RideHandler struct {
	allocator *app.Allocator
	notifier  *app.Notifier
	admin     *app.Admin
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewRideHandler(allocator *app.Allocator, notifier *app.Notifier, admin *app.Admin, logger *slog.Logger, validate *validator.Validate) *RideHandler {
	return &RideHandler{
		allocator: allocator,
		notifier:  notifier,
		admin:     admin,
		logger:    logger.With("handler", "rides"),
		validate:  validate,
	}
}

// RegisterRoutes registers ride routes with the given router.
func (h *RideHandler) RegisterRoutes(r chi.Router) {
	r.Post("/rides", h.handleCreateRide)
	r.Get("/rides", h.handleListRides)
	r.Get("/parties", h.handleListParties)
	r.Get("/proxy-numbers", h.handleListProxyNumbers)
}

func (h *RideHandler) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req CreateRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode create ride request", "error", err)
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Failed to validate create ride request", "error", err)
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	details, err := h.allocator.CreateRide(ctx, req.CustomerID, req.DriverID, req.Start, req.Destination, req.ScheduledAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Customer or driver not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrPoolExhausted):
			// Operator-facing condition; only extending the pool resolves it.
			http.Error(w, "No proxy number available! Please extend your pool.", http.StatusConflict)
		default:
			logger.ErrorContext(ctx, "Failed to create ride", "error", err)
			http.Error(w, "Failed to create ride", http.StatusInternalServerError)
		}
		return
	}

	h.notifier.NotifyRideCreated(ctx, details)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(CreateRideResponse{
		RideID:      details.Ride.ID,
		ProxyNumber: details.ProxyNumber.Number,
		Start:       details.Ride.Start,
		Destination: details.Ride.Destination,
		ScheduledAt: details.Ride.ScheduledAt,
		CreatedAt:   details.Ride.CreatedAt,
	})
}

func (h *RideHandler) handleListRides(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rides, err := h.admin.ListRides(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list rides", "error", err)
		http.Error(w, "Failed to list rides", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"rides": rides})
}

func (h *RideHandler) handleListParties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role := domain.PartyRole(r.URL.Query().Get("role"))
	if role != domain.RoleCustomer && role != domain.RoleDriver {
		http.Error(w, "role must be 'customer' or 'driver'", http.StatusBadRequest)
		return
	}
	parties, err := h.admin.ListParties(ctx, role)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list parties", "error", err, "role", role)
		http.Error(w, "Failed to list parties", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"parties": parties})
}

func (h *RideHandler) handleListProxyNumbers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	numbers, err := h.admin.ListProxyNumbers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list proxy numbers", "error", err)
		http.Error(w, "Failed to list proxy numbers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"proxy_numbers": numbers})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
