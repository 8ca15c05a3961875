package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for terminal authentication.
// All methods are safe on a nil receiver so services can run without metrics.
type Metrics struct {
	Registry            *prometheus.Registry
	LoginOutcomes       *prometheus.CounterVec
	RenewOutcomes       *prometheus.CounterVec
	TerminalsRegistered prometheus.Counter
	GeofenceDistanceKm  prometheus.Histogram
}

// New creates the collectors on a private registry so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		LoginOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_trust_login_attempts_total",
			Help: "Terminal login attempts by outcome code",
		}, []string{"outcome"}),
		RenewOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_trust_token_renewals_total",
			Help: "Token renewal attempts by outcome code",
		}, []string{"outcome"}),
		TerminalsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_trust_terminals_registered_total",
			Help: "Terminals registered through the admin API",
		}),
		GeofenceDistanceKm: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pos_trust_geofence_distance_km",
			Help:    "Distance between reported and registered location on geofence checks",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 5, 25, 100},
		}),
	}
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRenew(outcome string) {
	if m == nil {
		return
	}
	m.RenewOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementRegistrations() {
	if m == nil {
		return
	}
	m.TerminalsRegistered.Inc()
}

func (m *Metrics) ObserveGeofenceDistance(km float64) {
	if m == nil {
		return
	}
	m.GeofenceDistanceKm.Observe(km)
}
