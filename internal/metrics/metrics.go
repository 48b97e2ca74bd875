// Package metrics holds the Prometheus instrumentation of the tag monitor.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Values of the "cause" label of tagguard_alerts_cleared_total.
const (
	ClearedBySafe   = "safe_reading"
	ClearedByExpiry = "expired"
	ClearedByStop   = "shutdown"
)

// Values of the "outcome" label of tagguard_notifications_total.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
)

// Metrics holds all Prometheus collectors of the daemon.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AdvertisementsAccepted prometheus.Counter
	AdvertisementsIgnored  prometheus.Counter
	AlertsTriggered        *prometheus.CounterVec
	AlertsCleared          *prometheus.CounterVec
	Notifications          *prometheus.CounterVec
	AlertActive            prometheus.Gauge
	LastRSSI               prometheus.Gauge
	ConsecutiveWeak        prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them in reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AdvertisementsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "tagguard_advertisements_accepted_total",
			Help: "Advertisements of the tracked tag processed by the monitor",
		}),
		AdvertisementsIgnored: factory.NewCounter(prometheus.CounterOpts{
			Name: "tagguard_advertisements_ignored_total",
			Help: "Advertisements of other devices discarded by the filter",
		}),
		AlertsTriggered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tagguard_alerts_triggered_total",
			Help: "Alert episodes started, by reason",
		}, []string{"reason"}),
		AlertsCleared: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tagguard_alerts_cleared_total",
			Help: "Alert episodes ended, by cause",
		}, []string{"cause"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tagguard_notifications_total",
			Help: "Push notification attempts, by outcome",
		}, []string{"outcome"}),
		AlertActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tagguard_alert_active",
			Help: "1 while an alert episode is in progress",
		}),
		LastRSSI: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tagguard_last_rssi_dbm",
			Help: "Signal strength of the last accepted advertisement",
		}),
		ConsecutiveWeak: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tagguard_consecutive_weak_samples",
			Help: "Weak samples since the last safe one",
		}),
		gatherer: reg,
	}
}

// ObserveSample records an accepted sample.
func (m *Metrics) ObserveSample(rssi int, weak uint) {
	if m == nil {
		return
	}

	m.AdvertisementsAccepted.Inc()
	m.LastRSSI.Set(float64(rssi))
	m.ConsecutiveWeak.Set(float64(weak))
}

// IgnoreAdvertisement records a filtered-out advertisement.
func (m *Metrics) IgnoreAdvertisement() {
	if m == nil {
		return
	}

	m.AdvertisementsIgnored.Inc()
}

// AlertStarted records a new episode.
func (m *Metrics) AlertStarted(reason string) {
	if m == nil {
		return
	}

	m.AlertsTriggered.WithLabelValues(reason).Inc()
	m.AlertActive.Set(1)
}

// AlertEnded records the end of an episode.
func (m *Metrics) AlertEnded(cause string) {
	if m == nil {
		return
	}

	m.AlertsCleared.WithLabelValues(cause).Inc()
	m.AlertActive.Set(0)
}

// Notification records a push attempt outcome.
func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}

	m.Notifications.WithLabelValues(outcome).Inc()
}

// Router returns a chi router serving /metrics and /healthz.
func (m *Metrics) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if m != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
