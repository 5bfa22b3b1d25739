package pipeline

import (
	"sync/atomic"

	"firestige.xyz/pktxmt/internal/block"
	"firestige.xyz/pktxmt/internal/metrics"
)

// Metrics contains per-pipeline framing counters. The atomics hold running
// totals and may be read from any goroutine; last is owned by the driver.
type Metrics struct {
	Graph string

	Preambles     atomic.Uint64
	PreambleBytes atomic.Uint64
	PayloadBytes  atomic.Uint64
	StaleBytes    atomic.Uint64
	IgnoredTags   atomic.Uint64

	last block.InjectorStats
}

// NewMetrics creates a new metrics instance.
func NewMetrics(graph string) *Metrics {
	return &Metrics{Graph: graph}
}

// record stores the injector totals and exports the growth since the
// previous call to Prometheus.
func (m *Metrics) record(s block.InjectorStats) {
	m.Preambles.Store(s.Preambles)
	m.PreambleBytes.Store(s.PreambleBytes)
	m.PayloadBytes.Store(s.PayloadBytes)
	m.StaleBytes.Store(s.StaleBytes)
	m.IgnoredTags.Store(s.IgnoredTags)

	prev := m.last
	m.last = s
	for _, d := range []struct {
		event string
		delta uint64
	}{
		{"preambles", s.Preambles - prev.Preambles},
		{"preamble_bytes", s.PreambleBytes - prev.PreambleBytes},
		{"payload_bytes", s.PayloadBytes - prev.PayloadBytes},
		{"stale_bytes", s.StaleBytes - prev.StaleBytes},
		{"ignored_tags", s.IgnoredTags - prev.IgnoredTags},
	} {
		if d.delta > 0 {
			metrics.FramingEventsTotal.WithLabelValues(m.Graph, d.event).Add(float64(d.delta))
		}
	}
}
