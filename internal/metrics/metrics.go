package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"energy_dashboard/internal/dashboard"
)

const namespace = "energy_dashboard"

// Collector holds the dashboard metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	// Pipeline
	configurations prometheus.Counter
	descriptors    prometheus.Gauge
	pushes         prometheus.Counter
	onlineDevices  prometheus.Gauge
	totalValues    prometheus.Gauge
	warnings       prometheus.Gauge
	actions        *prometheus.CounterVec

	// Widget link
	messages  *prometheus.CounterVec
	connected prometheus.Gauge

	// Web
	clients         prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpRequestTime *prometheus.HistogramVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,

		configurations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "configurations_total",
			Help:      "Total number of configuration pushes applied",
		}),
		descriptors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "descriptors",
			Help:      "Number of realtime descriptors in the current configuration",
		}),
		pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "value_pushes_total",
			Help:      "Total number of value pushes applied",
		}),
		onlineDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "display",
			Name:      "online_devices",
			Help:      "Devices shown as online after the last value push",
		}),
		totalValues: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "display",
			Name:      "received_values",
			Help:      "Values displayed by the last value push",
		}),
		warnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "display",
			Name:      "thd_warnings",
			Help:      "THD members above the warning threshold",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "published_total",
			Help:      "Control actions dispatched, by action and result",
		}, []string{"action", "result"}),

		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "widget",
			Name:      "messages_total",
			Help:      "Widget messages received, by kind and result",
		}, []string{"kind", "result"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "widget",
			Name:      "connected",
			Help:      "1 when the widget link is connected",
		}),

		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected browser clients",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served",
		}, []string{"method", "route", "status"}),
		httpRequestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		c.configurations,
		c.descriptors,
		c.pushes,
		c.onlineDevices,
		c.totalValues,
		c.warnings,
		c.actions,
		c.messages,
		c.connected,
		c.clients,
		c.httpRequests,
		c.httpRequestTime,
	)
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return c
}

var _ dashboard.Recorder = (*Collector)(nil)

func (c *Collector) ConfigurationApplied(descriptors int) {
	c.configurations.Inc()
	c.descriptors.Set(float64(descriptors))
}

func (c *Collector) ValuesApplied(agg dashboard.Aggregates) {
	c.pushes.Inc()
	c.onlineDevices.Set(float64(agg.OnlineDevices))
	c.totalValues.Set(float64(agg.TotalValues))
	c.warnings.Set(float64(agg.WarningCount))
}

func (c *Collector) ActionPublished(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	if action == "" {
		action = "unknown"
	}
	c.actions.WithLabelValues(action, result).Inc()
}

// MessageReceived counts one widget message of kind.
func (c *Collector) MessageReceived(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "malformed"
	}
	c.messages.WithLabelValues(kind, result).Inc()
}

// SetConnected records the widget link state.
func (c *Collector) SetConnected(ok bool) {
	if ok {
		c.connected.Set(1)
		return
	}
	c.connected.Set(0)
}

// SetClients records the number of connected browsers.
func (c *Collector) SetClients(n int) {
	c.clients.Set(float64(n))
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestTime.WithLabelValues(method, route).Observe(d.Seconds())
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
