// Package observability wires Prometheus metrics and OpenTelemetry tracing
// for the fleet routing service.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for route requests and coordinate writes.
const (
	RouteCacheHit    = "cache_hit"
	RouteComputed    = "computed"
	RouteInvalid     = "invalid"
	RouteZoneBusy    = "zone_busy"
	RouteError       = "error"
	RouteCircuitOpen = "circuit_open"

	CoordinateStored    = "stored"
	CoordinateDuplicate = "duplicate"
	CoordinateInvalid   = "invalid"
	CoordinateQueued    = "queued"
	CoordinateReplayed  = "replayed"
)

// Collector bundles the service metrics. All recording methods are safe on a
// nil receiver so components can run without metrics in tests.
type Collector struct {
	gatherer prometheus.Gatherer

	RouteRequests      *prometheus.CounterVec
	ZoneLockContention prometheus.Counter
	CircuitOpen        prometheus.Gauge
	CircuitFailures    prometheus.Gauge
	PendingWrites      prometheus.Gauge
	PendingDropped     prometheus.Counter
	Coordinates        *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDurations      *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when reg is nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_route_requests_total",
			Help: "Route calculation requests by outcome.",
		}, []string{"outcome"}),
		ZoneLockContention: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_zone_lock_contention_total",
			Help: "Route requests rejected because the zone lock was held.",
		}),
		CircuitOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_circuit_open",
			Help: "1 when the routing circuit breaker is open.",
		}),
		CircuitFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_circuit_consecutive_failures",
			Help: "Consecutive routing failures seen by the circuit breaker.",
		}),
		PendingWrites: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_pending_writes",
			Help: "GPS coordinates waiting in the retry queue.",
		}),
		PendingDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_pending_writes_dropped_total",
			Help: "GPS coordinates evicted from a bounded retry queue.",
		}),
		Coordinates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_coordinates_total",
			Help: "Ingested GPS coordinates by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fleet_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"method", "route"}),
	}

	collectors := map[string]prometheus.Collector{
		"fleet_route_requests_total":          c.RouteRequests,
		"fleet_zone_lock_contention_total":    c.ZoneLockContention,
		"fleet_circuit_open":                  c.CircuitOpen,
		"fleet_circuit_consecutive_failures":  c.CircuitFailures,
		"fleet_pending_writes":                c.PendingWrites,
		"fleet_pending_writes_dropped_total":  c.PendingDropped,
		"fleet_coordinates_total":             c.Coordinates,
		"fleet_http_requests_total":           c.HTTPRequests,
		"fleet_http_request_duration_seconds": c.HTTPDurations,
	}
	for name, col := range collectors {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return c, nil
}

func (c *Collector) ObserveRoute(outcome string) {
	if c == nil {
		return
	}
	c.RouteRequests.WithLabelValues(outcome).Inc()
	if outcome == RouteZoneBusy {
		c.ZoneLockContention.Inc()
	}
}

func (c *Collector) ObserveCoordinate(outcome string) {
	if c == nil {
		return
	}
	c.Coordinates.WithLabelValues(outcome).Inc()
}

// SetCircuit mirrors the breaker state into gauges.
func (c *Collector) SetCircuit(open bool, failures int) {
	if c == nil {
		return
	}
	if open {
		c.CircuitOpen.Set(1)
	} else {
		c.CircuitOpen.Set(0)
	}
	c.CircuitFailures.Set(float64(failures))
}

func (c *Collector) SetPendingWrites(n int) {
	if c == nil {
		return
	}
	c.PendingWrites.Set(float64(n))
}

func (c *Collector) IncPendingDropped() {
	if c == nil {
		return
	}
	c.PendingDropped.Inc()
}

// GinMiddleware records request counts and latencies keyed by the matched
// route template, not the raw path.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		if c == nil {
			return
		}
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.HTTPDurations.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
