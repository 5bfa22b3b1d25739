package block

import (
	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/log"
	"firestige.xyz/pktxmt/internal/stream"
)

// BoundaryTagger passes bytes through unchanged and marks the first byte of
// every packet announced by a length tag with a start_packet tag.
type BoundaryTagger struct {
	name   string
	lenKey string
	logger log.Logger
}

// TaggerOption configures a BoundaryTagger.
type TaggerOption func(*BoundaryTagger)

// WithLengthKey overrides the length tag key (default packet_len).
func WithLengthKey(key string) TaggerOption {
	return func(b *BoundaryTagger) {
		if key != "" {
			b.lenKey = key
		}
	}
}

// WithTaggerLogger sets the logger used for trace output.
func WithTaggerLogger(l log.Logger) TaggerOption {
	return func(b *BoundaryTagger) { b.logger = l }
}

// NewBoundaryTagger creates a tagger.
func NewBoundaryTagger(opts ...TaggerOption) *BoundaryTagger {
	b := &BoundaryTagger{
		name:   "boundary_tagger",
		lenKey: core.TagPacketLen,
		logger: log.GetLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BoundaryTagger) Name() string { return b.name }

// LengthKey returns the configured length tag key.
func (b *BoundaryTagger) LengthKey() string { return b.lenKey }

// Work is a sync step: it consumes and produces the same count.
func (b *BoundaryTagger) Work(in *stream.Input, out *stream.Output) (int, int) {
	n := len(in.Items)
	if len(out.Items) < n {
		n = len(out.Items)
	}
	copy(out.Items[:n], in.Items[:n])

	for _, t := range in.TagsInWindow("", 0, n) {
		// Sync block: input and output offsets line up one to one.
		out.AddTag(t)

		if t.Key != b.lenKey {
			continue
		}
		plen, ok := t.IntValue()
		if !ok || plen <= 0 {
			continue
		}
		rel := int64(t.Offset) - int64(out.NWritten)
		if rel < 0 || rel >= int64(n) {
			continue
		}
		out.AddTag(core.Tag{
			Key:    core.TagStartPacket,
			Offset: out.NWritten + uint64(rel),
			Srcid:  b.name,
		})
		if b.logger.IsTraceEnabled() {
			b.logger.WithField("offset", t.Offset).WithField("len", plen).Trace("packet start tagged")
		}
	}
	return n, n
}
