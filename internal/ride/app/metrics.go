package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ridesCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rideproxy",
			Name:      "rides_created_total",
			Help:      "Total rides successfully allocated a proxy number.",
		},
	)

	allocationFailuresCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rideproxy",
			Name:      "allocation_failures_total",
			Help:      "Total failed ride allocations.",
		},
		[]string{"reason"}, // "not_found", "pool_exhausted", "conflict", "store_error"
	)

	allocationDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rideproxy",
			Name:      "allocation_duration_seconds",
			Help:      "Duration of ride allocation including retries.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	messagesRoutedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rideproxy",
			Name:      "messages_routed_total",
			Help:      "Total inbound messages resolved against the ride store.",
		},
		[]string{"outcome"}, // "forwarded", "unknown_route", "store_error"
	)

	callsRoutedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rideproxy",
			Name:      "calls_routed_total",
			Help:      "Total inbound calls resolved against the ride store.",
		},
		[]string{"outcome"}, // "transferred", "rejected", "store_error"
	)
)
