package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors the service reports to.
type Metrics struct {
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	OrdersPlaced         *prometheus.CounterVec
	PaymentConfirmations *prometheus.CounterVec
	InventoryAdjustments *prometheus.CounterVec
	WebhookEvents        *prometheus.CounterVec
	Notifications        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders persisted, by payment method.",
		}, []string{"payment_method"}),
		PaymentConfirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_confirmations_total",
			Help: "Payment confirmation attempts by entry point and outcome.",
		}, []string{"source", "outcome"}),
		InventoryAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_adjustments_total",
			Help: "Inventory adjustment runs by outcome.",
		}, []string{"outcome"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Gateway webhook calls by outcome.",
		}, []string{"outcome"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Customer notifications by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.HTTPRequests,
			m.HTTPDuration,
			m.OrdersPlaced,
			m.PaymentConfirmations,
			m.InventoryAdjustments,
			m.WebhookEvents,
			m.Notifications,
		)
	}
	return m
}

// Nop returns unregistered collectors; handy when a component is built
// without metrics.
func Nop() *Metrics { return New(nil) }
