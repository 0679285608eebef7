package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ridebird/rideproxy/internal/messaging/sender"
	"github.com/ridebird/rideproxy/internal/platform/config"
	"github.com/ridebird/rideproxy/internal/platform/database"
	"github.com/ridebird/rideproxy/internal/platform/logger"
	"github.com/ridebird/rideproxy/internal/platform/messagebroker"
	"github.com/ridebird/rideproxy/internal/ride/app"
	"github.com/ridebird/rideproxy/internal/ride/domain"
	"github.com/ridebird/rideproxy/internal/ride/repository/memory"
	"github.com/ridebird/rideproxy/internal/ride/repository/postgres"
	httptransport "github.com/ridebird/rideproxy/internal/transport/http"
)

const (
	serviceName     = "gateway"
	shutdownTimeout = 15 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger = appLogger.With("service", serviceName)
	appLogger.Info("Starting service...")

	appLogger.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"http_port", cfg.HTTPPort,
		"store_backend", cfg.StoreBackend,
		"sender_backend", cfg.SenderBackend,
		"nats_url", cfg.NATSUrl,
	)

	// Ride store: Postgres in production, in-memory for local development.
	var (
		partyRepo domain.PartyRepository
		proxyRepo domain.ProxyNumberRepository
		rideRepo  domain.RideRepository
	)
	switch cfg.StoreBackend {
	case "postgres":
		dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
		if err != nil {
			appLogger.Error("Failed to initialize database connection pool", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		appLogger.Info("Database connection pool initialized")
		partyRepo = postgres.NewPgPartyRepository(dbPool, appLogger)
		proxyRepo = postgres.NewPgProxyNumberRepository(dbPool, appLogger)
		rideRepo = postgres.NewPgRideRepository(dbPool, appLogger)
	case "memory":
		store := memory.NewStore()
		seedDevStore(store)
		appLogger.Info("In-memory store initialized with development seed data")
		partyRepo = store.Parties()
		proxyRepo = store.ProxyNumbers()
		rideRepo = store.Rides()
	default:
		appLogger.Error("Unknown store backend", "store_backend", cfg.StoreBackend)
		os.Exit(1)
	}

	// NATS is optional; without it, event publishing is disabled.
	var natsClient messagebroker.NATSClient
	if cfg.NATSUrl != "" {
		natsClient, err = messagebroker.NewNATSClient(cfg.NATSUrl, serviceName, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to NATS", "url", cfg.NATSUrl, "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		appLogger.Info("NATS client connected", "url", cfg.NATSUrl)
	} else {
		appLogger.Info("NATS URL not configured, event publishing disabled")
	}

	var messageSender sender.Sender
	switch cfg.SenderBackend {
	case "messagebird":
		messageSender = sender.NewMessageBirdSender(appLogger, cfg.MessageBirdBaseURL, cfg.MessageBirdAPIKey, nil)
	case "mock":
		messageSender = sender.NewMockSender(appLogger, "mock", 0, 0, 0)
	default:
		appLogger.Error("Unknown sender backend", "sender_backend", cfg.SenderBackend)
		os.Exit(1)
	}
	appLogger.Info("Message sender initialized", "sender", messageSender.GetName())

	allocator := app.NewAllocator(partyRepo, rideRepo, natsClient, appLogger)
	router := app.NewRouter(rideRepo, appLogger)
	notifier := app.NewNotifier(messageSender, appLogger)
	admin := app.NewAdmin(partyRepo, proxyRepo, rideRepo, appLogger)

	validate := validator.New()
	rideHandler := httptransport.NewRideHandler(allocator, notifier, admin, appLogger, validate)
	webhookHandler := httptransport.NewWebhookHandler(router, messageSender, natsClient, appLogger, validate)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(httptransport.PrometheusMetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	rideHandler.RegisterRoutes(r)
	webhookHandler.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
			return err
		}
		appLogger.Info("HTTP server stopped gracefully.")
		return nil
	})

	g.Go(func() error {
		stopSignal := make(chan os.Signal, 1)
		signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
		case <-groupCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server shutdown failed", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Service stopped.")
}

// seedDevStore loads a minimal fixture so the memory backend is usable
// immediately: two customers, two drivers and a two-number pool.
func seedDevStore(store *memory.Store) {
	store.AddParty(domain.RoleCustomer, "Caitlyn Carless", "+319700001")
	store.AddParty(domain.RoleCustomer, "Paul Passenger", "+319700002")
	store.AddParty(domain.RoleDriver, "David Driver", "+319700101")
	store.AddParty(domain.RoleDriver, "Doris Wheeler", "+319700102")
	store.AddProxyNumber("+319700201")
	store.AddProxyNumber("+319700202")
}
