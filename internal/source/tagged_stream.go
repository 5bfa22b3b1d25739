package source

import (
	"context"
	"errors"
	"io"
	"sync"

	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/frame"
	"firestige.xyz/pktxmt/internal/log"
	"firestige.xyz/pktxmt/internal/metrics"
	"firestige.xyz/pktxmt/internal/stream"
)

// TaggedStream runs a PDUSource in the background and serializes its PDUs
// into a byte stream, tagging the first byte of each PDU with its length.
// It implements scheduler.Source.
type TaggedStream struct {
	src       PDUSource
	chain     frame.Chain
	lengthKey string
	graph     string
	queue     int
	logger    log.Logger

	ch      chan core.PDU
	pending []byte

	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	runErr    error
}

type TaggedStreamOption func(*TaggedStream)

// WithProcessors applies the chain to every PDU before it is serialized.
func WithProcessors(p ...frame.Processor) TaggedStreamOption {
	return func(s *TaggedStream) { s.chain = append(s.chain, p...) }
}

// WithStreamLengthKey overrides the "packet_len" tag key.
func WithStreamLengthKey(key string) TaggedStreamOption {
	return func(s *TaggedStream) {
		if key != "" {
			s.lengthKey = key
		}
	}
}

// WithGraphName labels metrics.
func WithGraphName(name string) TaggedStreamOption {
	return func(s *TaggedStream) { s.graph = name }
}

// WithQueue sets how many PDUs may wait between the source and the stream.
func WithQueue(n int) TaggedStreamOption {
	return func(s *TaggedStream) {
		if n > 0 {
			s.queue = n
		}
	}
}

func NewTaggedStream(src PDUSource, opts ...TaggedStreamOption) *TaggedStream {
	s := &TaggedStream{
		src:       src,
		lengthKey: core.TagPacketLen,
		graph:     "default",
		queue:     16,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ch = make(chan core.PDU, s.queue)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.logger = log.GetLogger().WithFields(map[string]interface{}{
		"graph":  s.graph,
		"source": src.Name(),
	})
	return s
}

func (s *TaggedStream) Name() string { return "tagged_stream/" + s.src.Name() }

func (s *TaggedStream) start() {
	s.startOnce.Do(func() {
		go func() {
			defer close(s.done)
			defer close(s.ch)
			err := s.src.Run(s.ctx, s.ch)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.WithError(err).Error("pdu source failed")
				s.runErr = err
			}
		}()
	})
}

// Fill writes as much pending PDU data as fits. It never blocks: when no PDU
// is queued it returns what it has written so far.
func (s *TaggedStream) Fill(buf *stream.Buffer) (int, error) {
	s.start()

	total := 0
	for buf.Space() > 0 {
		if len(s.pending) == 0 {
			var (
				pdu core.PDU
				ok  bool
			)
			select {
			case pdu, ok = <-s.ch:
			default:
				return total, nil
			}
			if !ok {
				if total > 0 {
					return total, nil
				}
				<-s.done
				if s.runErr != nil {
					return 0, s.runErr
				}
				return 0, io.EOF
			}
			if !s.accept(buf, pdu) {
				continue
			}
		}
		n := buf.Write(s.pending)
		s.pending = s.pending[n:]
		total += n
	}
	return total, nil
}

// accept runs the processor chain and tags the PDU start at the current
// write position.
func (s *TaggedStream) accept(buf *stream.Buffer, pdu core.PDU) bool {
	pdu, err := s.chain.Process(pdu)
	if err != nil {
		s.logger.WithError(err).Warn("dropping pdu")
		return false
	}
	if pdu.Len() == 0 {
		return false
	}
	buf.AddTag(core.Tag{
		Key:    s.lengthKey,
		Value:  int64(pdu.Len()),
		Offset: buf.NWritten(),
		Srcid:  s.Name(),
	})
	s.pending = pdu.Data
	metrics.PDUsTotal.WithLabelValues(s.graph, s.src.Name()).Inc()
	metrics.PDUSizeBytes.WithLabelValues(s.graph).Observe(float64(pdu.Len()))
	return true
}

// Close stops the background source and waits for it to return.
func (s *TaggedStream) Close() error {
	s.start()
	s.cancel()
	<-s.done
	return nil
}
