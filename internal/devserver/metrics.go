package devserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry    *prometheus.Registry
	connections prometheus.Gauge
	requests    *prometheus.CounterVec
	batches     prometheus.Counter
	units       prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signspell_devserver_connections",
			Help: "Number of open client connections",
		}),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signspell_devserver_requests_total",
				Help: "Animation requests received, by outcome",
			},
			[]string{"outcome"},
		),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signspell_devserver_batches_sent_total",
			Help: "Animation batches written to clients",
		}),
		units: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signspell_devserver_units_sent_total",
			Help: "Animation units written to clients",
		}),
	}
	m.registry.MustRegister(m.connections, m.requests, m.batches, m.units)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
