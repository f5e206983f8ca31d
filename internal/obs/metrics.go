package obs

import (
	"sync/atomic"
	"time"

	"github.com/JP-Fernando/trading-tool/internal/schema"
)

const maxKind = int(schema.KindPnLUpdate)

// Metrics collects lightweight counters and latency stats for one run.
type Metrics struct {
	eventCounts     [maxKind + 1]uint64
	ordersDropped   uint64
	ordersSynthetic uint64
	fills           uint64

	dispatchLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	EventCounts     map[schema.Kind]uint64
	Processed       uint64
	OrdersDropped   uint64
	OrdersSynthetic uint64
	Fills           uint64
	DispatchLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveEvent counts one dispatched event and its handling time.
func (m *Metrics) ObserveEvent(kind schema.Kind, d time.Duration) {
	if m == nil {
		return
	}
	idx := int(kind)
	if idx >= 0 && idx < len(m.eventCounts) {
		atomic.AddUint64(&m.eventCounts[idx], 1)
	}
	m.dispatchLatency.Observe(d)
}

// IncOrderDropped records an order dropped for lack of market data.
func (m *Metrics) IncOrderDropped() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersDropped, 1)
}

// IncOrderSynthetic records an order built from a signal.
func (m *Metrics) IncOrderSynthetic() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersSynthetic, 1)
}

// IncFill records a fill produced by the simulator.
func (m *Metrics) IncFill() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.fills, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	counts := make(map[schema.Kind]uint64)
	var processed uint64
	for i := range m.eventCounts {
		if v := atomic.LoadUint64(&m.eventCounts[i]); v > 0 {
			counts[schema.Kind(i)] = v
			processed += v
		}
	}
	return Snapshot{
		EventCounts:     counts,
		Processed:       processed,
		OrdersDropped:   atomic.LoadUint64(&m.ordersDropped),
		OrdersSynthetic: atomic.LoadUint64(&m.ordersSynthetic),
		Fills:           atomic.LoadUint64(&m.fills),
		DispatchLatency: m.dispatchLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
		Avg:   time.Duration(sum / count),
	}
}
