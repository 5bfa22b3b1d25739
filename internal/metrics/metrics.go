// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlockItemsTotal counts bytes moved by each block
	BlockItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktxmt_block_items_total",
			Help: "Total number of bytes consumed or produced by a block",
		},
		[]string{"graph", "block", "direction"},
	)

	// BlockCallsTotal counts block invocations, split by whether they made progress
	BlockCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktxmt_block_calls_total",
			Help: "Total number of block invocations",
		},
		[]string{"graph", "block", "result"},
	)

	// TagsTotal counts stream tags written by each block
	TagsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktxmt_tags_total",
			Help: "Total number of stream tags emitted by a block",
		},
		[]string{"graph", "block", "key"},
	)

	// FramingEventsTotal counts preamble injector events
	FramingEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktxmt_framing_events_total",
			Help: "Preamble injector events (preambles, stale_bytes, ignored_tags, preamble_bytes, payload_bytes)",
		},
		[]string{"graph", "event"},
	)

	// PDUsTotal counts PDUs entering the tagged stream
	PDUsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktxmt_pdus_total",
			Help: "Total number of PDUs converted to tagged stream packets",
		},
		[]string{"graph", "source"},
	)

	// PDUSizeBytes tracks PDU size distribution
	PDUSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pktxmt_pdu_size_bytes",
			Help:    "Size of PDUs entering the tagged stream",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 .. 2048
		},
		[]string{"graph"},
	)

	// SinkBytesTotal counts bytes delivered to sinks
	SinkBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktxmt_sink_bytes_total",
			Help: "Total number of bytes written to the sink",
		},
		[]string{"graph", "sink"},
	)

	// SinkErrorsTotal counts sink write failures
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktxmt_sink_errors_total",
			Help: "Total number of sink write errors",
		},
		[]string{"graph", "sink"},
	)

	// SensorMessagesTotal counts sensor bridge messages
	SensorMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktxmt_sensor_messages_total",
			Help: "Sensor messages by direction (published, received) and result",
		},
		[]string{"direction", "result"},
	)

	// GraphStatus tracks the flowgraph status
	GraphStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pktxmt_graph_status",
			Help: "Current status of flowgraphs (0=stopped, 1=running, 2=error)",
		},
		[]string{"graph"},
	)
)

// GraphStatusValue represents graph status as a numeric value for the gauge
const (
	GraphStatusStopped = 0
	GraphStatusRunning = 1
	GraphStatusError   = 2
)
