// Package metrics registers the Prometheus collectors exported by the
// backend API and the frontend dev server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	// BrewsTotal counts brew attempts by drink and result.
	BrewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffeebar_brews_total",
		Help: "Total number of brew attempts by drink and result",
	}, []string{"drink", "result"})

	// FillsTotal counts container refills by container and result.
	FillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffeebar_fills_total",
		Help: "Total number of fill attempts by container and result",
	}, []string{"container", "result"})

	// ProxyRequestsTotal counts dev server requests forwarded to a backend.
	ProxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffeebar_devserver_proxy_requests_total",
		Help: "Total number of proxied dev server requests by prefix and status code",
	}, []string{"prefix", "code"})

	// ProxyDuration tracks round-trip latency of proxied requests.
	ProxyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coffeebar_devserver_proxy_duration_seconds",
		Help:    "Latency of proxied dev server requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"prefix"})

	// BackendUp reports whether the last backend probe succeeded.
	BackendUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coffeebar_devserver_backend_up",
		Help: "1 if the proxied backend answered the last probe, 0 otherwise",
	})

	// LiveReloadClients reports the number of connected live reload streams.
	LiveReloadClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coffeebar_devserver_livereload_clients",
		Help: "Number of browsers connected to the live reload stream",
	})
)

// ObserveBrew records a brew attempt.
func ObserveBrew(drink, result string) {
	BrewsTotal.WithLabelValues(drink, result).Inc()
}

// ObserveFill records a fill attempt.
func ObserveFill(container, result string) {
	FillsTotal.WithLabelValues(container, result).Inc()
}

// ObserveProxy records a proxied request.
func ObserveProxy(prefix string, code int, duration time.Duration) {
	ProxyRequestsTotal.WithLabelValues(prefix, strconv.Itoa(code)).Inc()
	ProxyDuration.WithLabelValues(prefix).Observe(duration.Seconds())
}

// SetBackendUp records the outcome of a backend probe.
func SetBackendUp(up bool) {
	if up {
		BackendUp.Set(1)
		return
	}
	BackendUp.Set(0)
}
