package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutSessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Total number of checkout sessions created",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of failed checkout initiations",
	}, []string{"reason"})

	PurchasesConfirmedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_confirmed_total",
		Help: "Total number of purchases confirmed, by confirmation source",
	}, []string{"source"})

	PurchaseConfirmRedeliveriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_confirm_redeliveries_total",
		Help: "Confirmations applied to already-paid purchases",
	})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Total webhook events received, by provider and outcome",
	}, []string{"provider", "outcome"})

	AccessChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_checks_total",
		Help: "Total access gate checks, by result",
	}, []string{"result"})

	UsersRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "users_registered_total",
		Help: "Total number of users created from identity events",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
