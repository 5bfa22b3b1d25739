package pipeline

import (
	"fmt"
	"time"

	"firestige.xyz/pktxmt/internal/block"
	"firestige.xyz/pktxmt/internal/config"
	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/frame"
	"firestige.xyz/pktxmt/internal/log"
	"firestige.xyz/pktxmt/internal/scheduler"
	"firestige.xyz/pktxmt/internal/sink"
	"firestige.xyz/pktxmt/internal/source"
)

// Builder provides a fluent interface for building pipelines.
type Builder struct {
	graph      scheduler.Config
	src        source.PDUSource
	snk        sink.Sink
	processors []frame.Processor
	preamble   []byte
	lengthKey  string
	aligned    bool
	queue      int
}

// NewBuilder creates a builder with the default preamble and aligned windows.
func NewBuilder(name string) *Builder {
	return &Builder{
		graph:     scheduler.Config{Name: name},
		preamble:  block.DefaultPreamble,
		lengthKey: core.TagPacketLen,
		aligned:   true,
	}
}

// WithSource sets the PDU source.
func (b *Builder) WithSource(src source.PDUSource) *Builder {
	b.src = src
	return b
}

// WithSink sets the sink.
func (b *Builder) WithSink(s sink.Sink) *Builder {
	b.snk = s
	return b
}

// WithProcessors appends PDU processors, applied in order.
func (b *Builder) WithProcessors(p ...frame.Processor) *Builder {
	b.processors = append(b.processors, p...)
	return b
}

// WithPreamble sets the preamble bytes.
func (b *Builder) WithPreamble(p []byte) *Builder {
	b.preamble = p
	return b
}

// WithLengthKey sets the key of the packet length tags.
func (b *Builder) WithLengthKey(key string) *Builder {
	b.lengthKey = key
	return b
}

// WithAlignedWindows toggles packet-aligned input windows for the injector.
func (b *Builder) WithAlignedWindows(on bool) *Builder {
	b.aligned = on
	return b
}

// WithBufferSize sets the capacity of every flowgraph edge.
func (b *Builder) WithBufferSize(n int) *Builder {
	b.graph.BufferSize = n
	return b
}

// WithChunks caps the input and output windows of every block invocation.
func (b *Builder) WithChunks(in, out int) *Builder {
	b.graph.MaxInputChunk = in
	b.graph.MaxOutputChunk = out
	return b
}

// WithIdleWait sets how long the driver sleeps when nothing moved.
func (b *Builder) WithIdleWait(d time.Duration) *Builder {
	b.graph.IdleWait = d
	return b
}

// WithQueue sets how many PDUs may wait ahead of the stream.
func (b *Builder) WithQueue(n int) *Builder {
	b.queue = n
	return b
}

// Build creates the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.src == nil || b.snk == nil {
		return nil, core.ErrGraphNotWired
	}
	name := b.graph.Name
	if name == "" {
		name = "default"
		b.graph.Name = name
	}
	logger := log.GetLogger().WithField("pipeline", name)

	ts := source.NewTaggedStream(b.src,
		source.WithProcessors(b.processors...),
		source.WithStreamLengthKey(b.lengthKey),
		source.WithGraphName(name),
		source.WithQueue(b.queue),
	)
	tagger := block.NewBoundaryTagger(
		block.WithLengthKey(b.lengthKey),
		block.WithTaggerLogger(logger),
	)
	injector := block.NewPreambleInjector(
		block.WithPreamble(b.preamble),
		block.WithAlignedWindows(b.aligned),
		block.WithInjectorLogger(logger),
	)

	m := NewMetrics(name)
	cfg := b.graph
	cfg.AfterStep = func() { m.record(injector.Stats()) }

	g, err := scheduler.NewGraph(cfg, ts, b.snk, tagger, injector)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		name:     name,
		graph:    g,
		stream:   ts,
		injector: injector,
		metrics:  m,
		logger:   logger,
	}, nil
}

// FromConfig builds a pipeline from the registered source and sink types
// named in cfg.
func FromConfig(name string, cfg *config.Config) (*Pipeline, error) {
	preamble, err := cfg.Framing.PreambleBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}

	var processors []frame.Processor
	if cfg.Framing.CRC {
		processors = append(processors, frame.CRCAppend{})
	}
	if cfg.Framing.Header {
		h, err := frame.NewHeaderFormatter(cfg.Framing.AccessCode)
		if err != nil {
			return nil, err
		}
		processors = append(processors, h)
	}

	src, err := source.New(cfg.Source.Type, cfg.Source.Options)
	if err != nil {
		return nil, err
	}
	snk, err := sink.New(cfg.Sink.Type, cfg.Sink.Options)
	if err != nil {
		return nil, err
	}

	return NewBuilder(name).
		WithSource(src).
		WithSink(snk).
		WithProcessors(processors...).
		WithPreamble(preamble).
		WithLengthKey(cfg.Framing.LengthKey).
		WithAlignedWindows(cfg.Framing.AlignWindows).
		WithBufferSize(cfg.Scheduler.BufferSize).
		WithChunks(cfg.Scheduler.MaxInputChunk, cfg.Scheduler.MaxOutputChunk).
		WithIdleWait(cfg.Scheduler.IdleWait).
		WithQueue(cfg.Framing.Queue).
		Build()
}
