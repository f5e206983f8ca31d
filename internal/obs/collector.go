package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JP-Fernando/trading-tool/internal/schema"
)

const namespace = "backtest"

// Collector exposes a Metrics value to Prometheus. Values are read at
// scrape time so the hot path only touches atomics.
type Collector struct {
	m *Metrics

	events          *prometheus.Desc
	ordersDropped   *prometheus.Desc
	ordersSynthetic *prometheus.Desc
	fills           *prometheus.Desc
	dispatchAvg     *prometheus.Desc
}

// NewCollector wraps m for registration with a prometheus.Registerer.
func NewCollector(m *Metrics, runID string) *Collector {
	labels := prometheus.Labels{"run": runID}
	return &Collector{
		m:               m,
		events:          prometheus.NewDesc(namespace+"_events_total", "Events dispatched by the simulation loop", []string{"kind"}, labels),
		ordersDropped:   prometheus.NewDesc(namespace+"_orders_dropped_total", "Orders dropped for lack of market data", nil, labels),
		ordersSynthetic: prometheus.NewDesc(namespace+"_orders_synthesized_total", "Orders synthesized from signals", nil, labels),
		fills:           prometheus.NewDesc(namespace+"_fills_total", "Fills produced by the execution simulator", nil, labels),
		dispatchAvg:     prometheus.NewDesc(namespace+"_dispatch_seconds_avg", "Average event handling time", nil, labels),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.events
	ch <- c.ordersDropped
	ch <- c.ordersSynthetic
	ch <- c.fills
	ch <- c.dispatchAvg
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.m.Snapshot()
	for k := schema.KindTick; k <= schema.KindPnLUpdate; k++ {
		ch <- prometheus.MustNewConstMetric(c.events, prometheus.CounterValue, float64(snap.EventCounts[k]), k.String())
	}
	ch <- prometheus.MustNewConstMetric(c.ordersDropped, prometheus.CounterValue, float64(snap.OrdersDropped))
	ch <- prometheus.MustNewConstMetric(c.ordersSynthetic, prometheus.CounterValue, float64(snap.OrdersSynthetic))
	ch <- prometheus.MustNewConstMetric(c.fills, prometheus.CounterValue, float64(snap.Fills))
	ch <- prometheus.MustNewConstMetric(c.dispatchAvg, prometheus.GaugeValue, snap.DispatchLatency.Avg.Seconds())
}

// Serve exposes reg on addr under /metrics. The server runs until closed.
func Serve(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
