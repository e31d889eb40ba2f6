package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// Every method is safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	SessionLogins  prometheus.Counter
	SessionLogouts *prometheus.CounterVec
	Authenticated  prometheus.Gauge
	StateResets    prometheus.Counter

	GuardRedirects *prometheus.CounterVec

	GatewayLatency   *prometheus.HistogramVec
	GatewayResponses *prometheus.CounterVec

	ListFetches     *prometheus.CounterVec
	BulkDeletes     *prometheus.CounterVec
	SearchSupersede prometheus.Counter
}

// New creates the metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionLogins: factory.NewCounter(prometheus.CounterOpts{
			Name: "todoweb_session_logins_total",
			Help: "Total number of sessions committed by login",
		}),
		SessionLogouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "todoweb_session_logouts_total",
			Help: "Total number of sessions cleared, labeled by reason",
		}, []string{"reason"}),
		Authenticated: factory.NewGauge(prometheus.GaugeOpts{
			Name: "todoweb_session_authenticated",
			Help: "1 while a session is held, 0 otherwise",
		}),
		StateResets: factory.NewCounter(prometheus.CounterOpts{
			Name: "todoweb_session_state_resets_total",
			Help: "Total number of malformed persisted session entries discarded",
		}),
		GuardRedirects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "todoweb_guard_redirects_total",
			Help: "Total number of navigations redirected by the route guard, labeled by reason",
		}, []string{"reason"}),
		GatewayLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "todoweb_gateway_request_duration_seconds",
			Help:    "Latency of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		GatewayResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "todoweb_gateway_responses_total",
			Help: "Total number of API responses, labeled by route and outcome",
		}, []string{"method", "route", "outcome"}),
		ListFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "todoweb_list_fetches_total",
			Help: "Total number of list reads, labeled by result (hit, miss, stale)",
		}, []string{"list", "result"}),
		BulkDeletes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "todoweb_bulk_delete_items_total",
			Help: "Total number of items processed by bulk delete, labeled by outcome",
		}, []string{"outcome"}),
		SearchSupersede: factory.NewCounter(prometheus.CounterOpts{
			Name: "todoweb_search_superseded_total",
			Help: "Total number of search inputs superseded before settling",
		}),
	}
}

// IncrementLogins records a committed login.
func (m *Metrics) IncrementLogins() {
	if m == nil {
		return
	}
	m.SessionLogins.Inc()
	m.Authenticated.Set(1)
}

// IncrementLogouts records a cleared session. reason is "user" or "expired".
func (m *Metrics) IncrementLogouts(reason string) {
	if m == nil {
		return
	}
	m.SessionLogouts.WithLabelValues(reason).Inc()
	m.Authenticated.Set(0)
}

func (m *Metrics) SetAuthenticated(authenticated bool) {
	if m == nil {
		return
	}
	if authenticated {
		m.Authenticated.Set(1)
		return
	}
	m.Authenticated.Set(0)
}

func (m *Metrics) IncrementStateResets() {
	if m == nil {
		return
	}
	m.StateResets.Inc()
}

func (m *Metrics) IncrementGuardRedirects(reason string) {
	if m == nil {
		return
	}
	m.GuardRedirects.WithLabelValues(reason).Inc()
}

// ObserveGatewayCall records latency and outcome of one API call.
func (m *Metrics) ObserveGatewayCall(method, route, outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.GatewayLatency.WithLabelValues(method, route).Observe(durationSeconds)
	m.GatewayResponses.WithLabelValues(method, route, outcome).Inc()
}

func (m *Metrics) IncrementListFetches(list, result string) {
	if m == nil {
		return
	}
	m.ListFetches.WithLabelValues(list, result).Inc()
}

func (m *Metrics) AddBulkDeletes(deleted, failed int) {
	if m == nil {
		return
	}
	m.BulkDeletes.WithLabelValues("deleted").Add(float64(deleted))
	m.BulkDeletes.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) IncrementSearchSuperseded() {
	if m == nil {
		return
	}
	m.SearchSupersede.Inc()
}
