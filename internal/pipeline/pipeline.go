// Package pipeline assembles and runs the transmit flowgraph:
// PDU source → tagged stream → boundary tagger → preamble injector → sink.
package pipeline

import (
	"context"

	"firestige.xyz/pktxmt/internal/block"
	"firestige.xyz/pktxmt/internal/log"
	"firestige.xyz/pktxmt/internal/scheduler"
	"firestige.xyz/pktxmt/internal/source"
)

// Pipeline owns one flowgraph and the PDU source feeding it.
type Pipeline struct {
	name     string
	graph    *scheduler.Graph
	stream   *source.TaggedStream
	injector *block.PreambleInjector
	metrics  *Metrics
	logger   log.Logger
}

func (p *Pipeline) Name() string { return p.name }

// Graph exposes the underlying flowgraph.
func (p *Pipeline) Graph() *scheduler.Graph { return p.graph }

// Injector exposes the preamble injector. Its state must only be read once
// Run has returned.
func (p *Pipeline) Injector() *block.PreambleInjector { return p.injector }

// Run drives the flowgraph until the source is exhausted or ctx is
// cancelled, then stops the source. Framing counters are updated after
// every sweep.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline starting")

	err := p.graph.Run(ctx)
	if cerr := p.stream.Close(); cerr != nil {
		p.logger.WithError(cerr).Warn("failed to stop pdu source")
	}

	stats := p.injector.Stats()
	p.logger.WithFields(map[string]interface{}{
		"preambles":    stats.Preambles,
		"payload":      stats.PayloadBytes,
		"stale":        stats.StaleBytes,
		"ignored_tags": stats.IgnoredTags,
	}).Info("pipeline stopped")
	return err
}

// Stats returns the framing counters as of the last completed sweep. It is
// safe to call concurrently with Run.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Preambles:     p.metrics.Preambles.Load(),
		PreambleBytes: p.metrics.PreambleBytes.Load(),
		PayloadBytes:  p.metrics.PayloadBytes.Load(),
		StaleBytes:    p.metrics.StaleBytes.Load(),
		IgnoredTags:   p.metrics.IgnoredTags.Load(),
	}
}

// Stats represents pipeline statistics.
type Stats struct {
	Preambles     uint64
	PreambleBytes uint64
	PayloadBytes  uint64
	StaleBytes    uint64
	IgnoredTags   uint64
}
