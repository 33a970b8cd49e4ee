package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "imgproxy"

// Collector owns the service metrics. A nil *Collector is valid and
// records nothing, which keeps tests and optional wiring simple.
type Collector struct {
	registry *prometheus.Registry

	proxyRequests     *prometheus.CounterVec
	upstreamFetches   *prometheus.HistogramVec
	transformRequests *prometheus.CounterVec
	rpcBatches        prometheus.Counter
	rpcBatchSize      prometheus.Histogram
	rpcProcedureCalls *prometheus.CounterVec
}

func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,

		proxyRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "proxy_requests_total",
				Help:      "Image proxy requests by route and outcome",
			},
			[]string{"route", "outcome"},
		),

		upstreamFetches: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "upstream_fetch_duration_seconds",
				Help:      "Duration of upstream image fetches",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"target", "outcome"},
		),

		transformRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "transform_requests_total",
				Help:      "Transform gateway requests by outcome",
			},
			[]string{"outcome"},
		),

		rpcBatches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rpc_batches_total",
				Help:      "Batched RPC requests sent by the client",
			},
		),

		rpcBatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "rpc_batch_size",
				Help:      "Number of procedure calls per RPC batch",
				Buckets:   []float64{1, 2, 4, 8, 16, 32},
			},
		),

		rpcProcedureCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rpc_procedure_calls_total",
				Help:      "RPC procedure calls served, by procedure and result code",
			},
			[]string{"procedure", "code"},
		),
	}

	registry.MustRegister(
		c.proxyRequests,
		c.upstreamFetches,
		c.transformRequests,
		c.rpcBatches,
		c.rpcBatchSize,
		c.rpcProcedureCalls,
	)

	return c
}

func (c *Collector) RecordProxyRequest(route, outcome string) {
	if c == nil {
		return
	}

	c.proxyRequests.WithLabelValues(route, outcome).Inc()
}

func (c *Collector) RecordUpstreamFetch(target, outcome string, duration time.Duration) {
	if c == nil {
		return
	}

	c.upstreamFetches.WithLabelValues(target, outcome).Observe(duration.Seconds())
}

func (c *Collector) RecordTransformRequest(outcome string) {
	if c == nil {
		return
	}

	c.transformRequests.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveRPCBatch(size int) {
	if c == nil {
		return
	}

	c.rpcBatches.Inc()
	c.rpcBatchSize.Observe(float64(size))
}

func (c *Collector) RecordRPCProcedureCall(procedure, code string) {
	if c == nil {
		return
	}

	c.rpcProcedureCalls.WithLabelValues(procedure, code).Inc()
}

// Handler exposes the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}

	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
