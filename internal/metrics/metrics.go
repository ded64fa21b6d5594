package metrics

import (
	"easyprofile/internal/profile"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "easyprofile"

// Metrics counts profile activity. It is both a profile.Hook (listener registry) and the
// source of a catch-all listener that counts pushed values per category.
type Metrics struct {
	reg *prometheus.Registry

	listeners        prometheus.Gauge
	listenersAdded   prometheus.Counter
	listenersRemoved prometheus.Counter
	changes          *prometheus.CounterVec
	flushes          *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		listeners: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "profile",
			Name:      "listeners",
			Help:      "Listeners currently subscribed to the profile",
		}),
		listenersAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "profile",
			Name:      "listeners_added_total",
			Help:      "Total listener subscriptions",
		}),
		listenersRemoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "profile",
			Name:      "listeners_removed_total",
			Help:      "Total listener unsubscriptions",
		}),
		// Labels: category
		changes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "profile",
			Name:      "pushed_values_total",
			Help:      "Total values pushed to listeners",
		}, []string{"category"}),
		// Labels: status (ok, error)
		flushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "flushes_total",
			Help:      "Total flushes of dirty categories to the store",
		}, []string{"status"}),
	}
}

func (m *Metrics) ListenerAdded(_ *profile.Listener, total int) {
	m.listenersAdded.Inc()
	m.listeners.Set(float64(total))
}

func (m *Metrics) ListenerRemoved(_ *profile.Listener, remain int) {
	m.listenersRemoved.Inc()
	m.listeners.Set(float64(remain))
}

// Listener returns a catch-all listener feeding the pushed-values counter.
func (m *Metrics) Listener() *profile.Listener {
	return profile.NewListener("metrics", profile.HandleAny(func(ch profile.Change) {
		m.changes.WithLabelValues(ch.Category).Inc()
	}))
}

func (m *Metrics) ObserveFlush(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.flushes.WithLabelValues(status).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
