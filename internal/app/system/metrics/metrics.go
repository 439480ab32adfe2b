// Package metrics holds the Prometheus collectors for the workflow packages
// and the HTTP surface, registered on a dedicated registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry served at /metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// LedgerMutations counts membership ledger writes by operation and
	// whether they changed the club's active member count.
	LedgerMutations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubsphere",
		Name:      "ledger_mutations_total",
		Help:      "Membership ledger mutations by operation.",
	}, []string{"op", "counter_changed"})

	// Registrations counts event registration attempts by outcome.
	Registrations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubsphere",
		Name:      "event_registrations_total",
		Help:      "Event registration and cancellation outcomes.",
	}, []string{"op", "outcome"})

	// Reconciliations counts payment verification outcomes.
	Reconciliations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubsphere",
		Name:      "payment_reconciliations_total",
		Help:      "Payment verification outcomes.",
	}, []string{"outcome"})

	// Checkouts counts checkout session creation outcomes.
	Checkouts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubsphere",
		Name:      "checkout_sessions_total",
		Help:      "Checkout session creation outcomes.",
	}, []string{"outcome"})

	// HTTPDuration observes request latency by route pattern and status.
	HTTPDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clubsphere",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Bool renders a label value for a boolean.
func Bool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
