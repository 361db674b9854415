package httpserver

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests    *prometheus.CounterVec
	catalogSize prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moviedb",
			Name:      "http_requests_total",
			Help:      "Preview server requests by route and status code",
		}, []string{"route", "code"}),
		catalogSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "moviedb",
			Name:      "catalog_movies",
			Help:      "Movies in the catalog at the last API read",
		}),
	}
}

func (m *metrics) observe(route string, status int) {
	if status == 0 {
		status = 200
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
