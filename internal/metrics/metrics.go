package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"notifyrelay/internal/stream"
)

const namespace = "notifyrelay"

type Metrics struct {
	registry *prometheus.Registry

	NotificationsReceived prometheus.Counter
	ListenerErrors        prometheus.Counter
	PersistFailures       prometheus.Counter
	HistoryLoadFailures   prometheus.Counter
}

func New(hub *stream.Hub) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		NotificationsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_received_total",
			Help:      "Notifications received from the active listener.",
		}),
		ListenerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listener_errors_total",
			Help:      "Errors reported by the notification listener.",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_persist_failures_total",
			Help:      "History appends that could not be persisted after retries.",
		}),
		HistoryLoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_load_failures_total",
			Help:      "History reads that failed after retries.",
		}),
	}
	reg.MustRegister(
		m.NotificationsReceived,
		m.ListenerErrors,
		m.PersistFailures,
		m.HistoryLoadFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if hub != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_subscribers",
			Help:      "Currently registered stream subscribers.",
		}, func() float64 { return float64(hub.Len()) }))
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
