package block

import (
	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/log"
	"firestige.xyz/pktxmt/internal/stream"
)

// DefaultPreamble is injected ahead of every packet unless configured
// otherwise.
var DefaultPreamble = []byte{0xAA, 0x55, 0xAA, 0x55}

// InjectorState is the framing state of a PreambleInjector.
type InjectorState int

const (
	// Forwarding passes payload through and accepts the next boundary tag.
	Forwarding InjectorState = iota
	// WaitingForPayload follows a completed preamble; boundary tags are
	// ignored until the first payload byte has been forwarded.
	WaitingForPayload
	// EmittingPreamble writes preamble bytes and nothing else.
	EmittingPreamble
)

func (s InjectorState) String() string {
	switch s {
	case Forwarding:
		return "forwarding"
	case WaitingForPayload:
		return "waiting_for_payload"
	case EmittingPreamble:
		return "emitting_preamble"
	default:
		return "unknown"
	}
}

// InjectorStats counts what the injector has done so far.
type InjectorStats struct {
	Preambles     uint64 // boundary tags accepted
	PreambleBytes uint64
	PayloadBytes  uint64
	StaleBytes    uint64 // bytes discarded ahead of an accepted tag
	IgnoredTags   uint64 // boundary tags seen while not eligible
}

// PreambleInjector writes a fixed preamble ahead of each packet marked with a
// start_packet tag and forwards the payload unchanged.
type PreambleInjector struct {
	name     string
	preamble []byte
	align    bool
	logger   log.Logger

	state  InjectorState
	cursor int
	// offset of the last accepted tag, still visible until payload moves past it
	lastTag  uint64
	accepted bool
	// highest offset already counted as ignored
	lastIgnored uint64
	ignored     bool
	stats       InjectorStats
}

// InjectorOption configures a PreambleInjector.
type InjectorOption func(*PreambleInjector)

// WithPreamble sets the preamble. An empty preamble keeps the default.
func WithPreamble(p []byte) InjectorOption {
	return func(b *PreambleInjector) {
		if len(p) > 0 {
			b.preamble = append([]byte(nil), p...)
		}
	}
}

// WithAlignedWindows asks the scheduler to cut input windows at boundary
// tags, so one invocation never forwards bytes of two packets.
func WithAlignedWindows(on bool) InjectorOption {
	return func(b *PreambleInjector) { b.align = on }
}

// WithInjectorLogger sets the logger.
func WithInjectorLogger(l log.Logger) InjectorOption {
	return func(b *PreambleInjector) { b.logger = l }
}

// NewPreambleInjector creates an injector in the Forwarding state, so the
// first boundary tag is accepted.
func NewPreambleInjector(opts ...InjectorOption) *PreambleInjector {
	b := &PreambleInjector{
		name:     "preamble_injector",
		preamble: append([]byte(nil), DefaultPreamble...),
		logger:   log.GetLogger(),
		state:    Forwarding,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *PreambleInjector) Name() string { return b.name }

// AlignTag implements Aligner when aligned windows are enabled.
func (b *PreambleInjector) AlignTag() string {
	if !b.align {
		return ""
	}
	return core.TagStartPacket
}

// Preamble returns a copy of the configured preamble.
func (b *PreambleInjector) Preamble() []byte {
	return append([]byte(nil), b.preamble...)
}

// State returns the current framing state.
func (b *PreambleInjector) State() InjectorState { return b.state }

// Cursor returns how many preamble bytes of the current packet were emitted.
func (b *PreambleInjector) Cursor() int { return b.cursor }

// Stats returns a snapshot of the counters.
func (b *PreambleInjector) Stats() InjectorStats { return b.stats }

// countIgnored counts a boundary tag passed over while not eligible. A tag
// stays visible across invocations until payload moves past it, so each
// offset is counted once.
func (b *PreambleInjector) countIgnored(offset uint64) {
	if b.accepted && offset == b.lastTag {
		return
	}
	if b.ignored && offset <= b.lastIgnored {
		return
	}
	b.lastIgnored, b.ignored = offset, true
	b.stats.IgnoredTags++
}

// Work runs one invocation. At most one boundary tag is honored per call.
func (b *PreambleInjector) Work(in *stream.Input, out *stream.Output) (int, int) {
	items := in.Items
	consumed := 0

	for _, t := range in.TagsInWindow(core.TagStartPacket, 0, len(items)) {
		if b.state != Forwarding {
			b.countIgnored(t.Offset)
			continue
		}
		idx := int(t.Offset - in.NRead)
		b.stats.StaleBytes += uint64(idx)
		b.stats.Preambles++
		consumed = idx
		items = items[idx:]
		b.cursor = 0
		b.state = EmittingPreamble
		b.lastTag, b.accepted = t.Offset, true
		if b.logger.IsDebugEnabled() {
			b.logger.WithFields(map[string]interface{}{
				"offset": t.Offset,
				"stale":  idx,
			}).Debug("boundary tag accepted")
		}
		break
	}

	if b.state == EmittingPreamble {
		n := len(b.preamble) - b.cursor
		if len(out.Items) < n {
			n = len(out.Items)
		}
		if len(items) < n {
			n = len(items)
		}
		copy(out.Items[:n], b.preamble[b.cursor:b.cursor+n])
		b.cursor += n
		b.stats.PreambleBytes += uint64(n)
		if b.cursor == len(b.preamble) {
			b.state = WaitingForPayload
			b.logger.Debug("preamble complete")
		}
		return consumed, n
	}

	n := len(items)
	if len(out.Items) < n {
		n = len(out.Items)
	}
	copy(out.Items[:n], items[:n])
	if n > 0 {
		b.state = Forwarding
		b.stats.PayloadBytes += uint64(n)
	}
	return consumed + n, n
}
