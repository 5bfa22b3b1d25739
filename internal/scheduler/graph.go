// Package scheduler drives a chain of blocks by repeatedly invoking them with
// whatever input and output space is currently available.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"firestige.xyz/pktxmt/internal/block"
	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/log"
	"firestige.xyz/pktxmt/internal/metrics"
	"firestige.xyz/pktxmt/internal/stream"
)

// Source feeds the first edge of a graph. Fill must not block; it writes what
// is ready and returns io.EOF once nothing more will ever be written.
type Source interface {
	Name() string
	Fill(buf *stream.Buffer) (int, error)
}

// Sink receives the bytes leaving the last block.
type Sink interface {
	Name() string
	io.WriteCloser
}

// Config tunes the driver loop.
type Config struct {
	Name string
	// BufferSize is the capacity of every edge.
	BufferSize int
	// MaxInputChunk caps the input window of a single invocation (0 = no cap).
	MaxInputChunk int
	// MaxOutputChunk caps the output window of a single invocation (0 = no cap).
	MaxOutputChunk int
	// IdleWait is how long Run sleeps after a sweep without progress while
	// the source is still live.
	IdleWait time.Duration
	// AfterStep, when set, is called on the driver goroutine at the end of
	// every sweep.
	AfterStep func()
}

// Graph is a linear flowgraph: source, blocks, sink.
type Graph struct {
	cfg    Config
	source Source
	blocks []block.Block
	sink   Sink
	edges  []*stream.Buffer
	logger log.Logger

	sourceDone bool
	sweeps     uint64
}

// NewGraph wires source → blocks → sink with one buffer per edge.
func NewGraph(cfg Config, source Source, sink Sink, blocks ...block.Block) (*Graph, error) {
	if source == nil || sink == nil {
		return nil, core.ErrGraphNotWired
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 4096
	}
	if cfg.IdleWait == 0 {
		cfg.IdleWait = 10 * time.Millisecond
	}

	edges := make([]*stream.Buffer, len(blocks)+1)
	for i := range edges {
		buf, err := stream.NewBuffer(cfg.BufferSize)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		edges[i] = buf
	}

	return &Graph{
		cfg:    cfg,
		source: source,
		blocks: blocks,
		sink:   sink,
		edges:  edges,
		logger: log.GetLogger().WithField("graph", cfg.Name),
	}, nil
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.cfg.Name }

// Blocks returns the blocks in chain order.
func (g *Graph) Blocks() []block.Block { return g.blocks }

// SourceDone reports whether the source has signalled exhaustion.
func (g *Graph) SourceDone() bool { return g.sourceDone }

// Step runs one sweep: fill from the source, invoke every block once, drain
// into the sink. progress is false when nothing moved anywhere.
func (g *Graph) Step() (progress bool, err error) {
	g.sweeps++
	if g.cfg.AfterStep != nil {
		defer g.cfg.AfterStep()
	}

	if !g.sourceDone {
		n, err := g.source.Fill(g.edges[0])
		switch {
		case errors.Is(err, io.EOF):
			g.sourceDone = true
			g.logger.Debug("source exhausted")
		case err != nil:
			return false, fmt.Errorf("source %s: %w", g.source.Name(), err)
		}
		if n > 0 {
			progress = true
		}
	}

	for i, b := range g.blocks {
		in, out := g.edges[i], g.edges[i+1]

		win := in.InputWindow(g.cfg.MaxInputChunk)
		if a, ok := b.(block.Aligner); ok {
			if key := a.AlignTag(); key != "" {
				win.CutAtTag(key)
			}
		}
		ow := out.OutputWindow(g.cfg.MaxOutputChunk)

		consumed, produced := b.Work(win, ow)
		in.Consume(consumed)
		out.Commit(ow, produced)
		for _, t := range ow.Tags() {
			metrics.TagsTotal.WithLabelValues(g.cfg.Name, b.Name(), t.Key).Inc()
		}

		result := "idle"
		if consumed > 0 || produced > 0 {
			progress = true
			result = "progress"
			metrics.BlockItemsTotal.WithLabelValues(g.cfg.Name, b.Name(), "consumed").Add(float64(consumed))
			metrics.BlockItemsTotal.WithLabelValues(g.cfg.Name, b.Name(), "produced").Add(float64(produced))
		}
		metrics.BlockCallsTotal.WithLabelValues(g.cfg.Name, b.Name(), result).Inc()
	}

	last := g.edges[len(g.edges)-1]
	if data := last.Readable(); len(data) > 0 {
		n, err := g.sink.Write(data)
		last.Consume(n)
		if n > 0 {
			progress = true
			metrics.SinkBytesTotal.WithLabelValues(g.cfg.Name, g.sink.Name()).Add(float64(n))
		}
		if err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(g.cfg.Name, g.sink.Name()).Inc()
			return progress, fmt.Errorf("sink %s: %w", g.sink.Name(), err)
		}
	}

	return progress, nil
}

// Run sweeps until the source is exhausted and the graph has drained, or ctx
// is cancelled. Cancellation is only observed between sweeps. The sink is
// closed on return.
func (g *Graph) Run(ctx context.Context) (err error) {
	g.logger.WithFields(map[string]interface{}{
		"source": g.source.Name(),
		"sink":   g.sink.Name(),
		"blocks": len(g.blocks),
	}).Info("flowgraph starting")
	metrics.GraphStatus.WithLabelValues(g.cfg.Name).Set(metrics.GraphStatusRunning)

	defer func() {
		if cerr := g.sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("sink %s close: %w", g.sink.Name(), cerr)
		}
		status := metrics.GraphStatusStopped
		if err != nil && !errors.Is(err, core.ErrGraphStopped) {
			status = metrics.GraphStatusError
		}
		metrics.GraphStatus.WithLabelValues(g.cfg.Name).Set(float64(status))
		g.logger.WithField("sweeps", g.sweeps).Info("flowgraph stopped")
	}()

	timer := time.NewTimer(g.cfg.IdleWait)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", core.ErrGraphStopped, ctx.Err())
		}

		progress, err := g.Step()
		if err != nil {
			return err
		}
		if progress {
			continue
		}
		if g.sourceDone {
			return nil
		}

		timer.Reset(g.cfg.IdleWait)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", core.ErrGraphStopped, ctx.Err())
		case <-timer.C:
		}
	}
}
