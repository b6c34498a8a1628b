package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders transitioned to paid",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order operations",
	}, []string{"reason"})

	PaymentsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_processed_total",
		Help: "Total number of payments settled",
	})

	PaymentsDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_duplicate_total",
		Help: "Total number of payment requests deduplicated on order id",
	})

	PaymentProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_processing_latency_seconds",
		Help:    "Latency of payment processing",
		Buckets: prometheus.DefBuckets,
	})

	NotificationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Total number of notifications persisted",
	})

	NotificationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total number of failed notification operations",
	}, []string{"reason"})

	QueueMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_messages_total",
		Help: "Queue deliveries by final outcome (ack, requeue, drop)",
	}, []string{"queue", "outcome"})

	StreamPublishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stream_publish_failures_total",
		Help: "Best-effort event stream publishes that failed",
	}, []string{"topic"})

	WSConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "Currently open websocket connections",
	})

	WSPushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_pushes_total",
		Help: "Notification frames delivered to sockets",
	})

	WSFramesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_frames_dropped_total",
		Help: "Frames dropped because a socket send buffer was full",
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
