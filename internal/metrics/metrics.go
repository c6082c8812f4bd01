// Package metrics exposes Prometheus instrumentation for the editor and its
// HTTP surface. Each Collector owns its registry so tests can create as many
// as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Editor metrics
	Mutations   *prometheus.CounterVec
	NoOps       *prometheus.CounterVec
	Revision    prometheus.Gauge
	GraphNodes  prometheus.Gauge
	GraphEdges  prometheus.Gauge
	UndoDepth   prometheus.Gauge
	RedoDepth   prometheus.Gauge
	Subscribers prometheus.Gauge

	// Export metrics
	ExportDuration prometheus.Histogram
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
}

// NewCollector creates a collector whose metrics live under namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Committed diagram mutations by operation",
			},
			[]string{"op"},
		),
		NoOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "noop_mutations_total",
				Help:      "Mutation requests that left the diagram unchanged",
			},
			[]string{"op"},
		),
		Revision: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "revision",
			Help:      "Current diagram revision",
		}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the current diagram",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges in the current diagram",
		}),
		UndoDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_undo_depth",
			Help:      "Snapshots on the undo stack",
		}),
		RedoDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_redo_depth",
			Help:      "Snapshots on the redo stack",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_subscribers",
			Help:      "Connected event stream clients",
		}),
		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_render_duration_seconds",
			Help:      "Time spent rasterizing PNG exports",
			Buckets:   prometheus.DefBuckets,
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_cache_hits_total",
			Help:      "PNG exports served from cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_cache_misses_total",
			Help:      "PNG exports that had to be rendered",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.Mutations,
		c.NoOps,
		c.Revision,
		c.GraphNodes,
		c.GraphEdges,
		c.UndoDepth,
		c.RedoDepth,
		c.Subscribers,
		c.ExportDuration,
		c.CacheHits,
		c.CacheMisses,
	)
	return c
}

// ObserveRequest records one served HTTP request
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the collector's registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
