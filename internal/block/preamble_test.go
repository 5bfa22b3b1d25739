package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/stream"
)

var pre = DefaultPreamble

func TestInjectorSinglePacket(t *testing.T) {
	inj := NewPreambleInjector()
	res := drive(t, inj, seq(1, 10), starts(0), 0)

	assert.Equal(t, concat(pre, seq(1, 10)), res.out)
	assert.Empty(t, res.tags, "injector output is untagged")
	assert.Equal(t, Forwarding, inj.State())
	assert.Equal(t, uint64(1), inj.Stats().Preambles)
	assert.Equal(t, uint64(10), inj.Stats().PayloadBytes)
}

func TestInjectorPreambleIndependentOfOutputChunking(t *testing.T) {
	for _, caps := range [][]int{{1}, {2}, {4}, {3, 1}, {1, 3}} {
		inj := NewPreambleInjector()
		res := drive(t, inj, seq(1, 10), starts(0), 0, caps...)
		assert.Equal(t, concat(pre, seq(1, 10)), res.out, "caps %v", caps)
	}
}

func TestInjectorOneByteOutputSpansFourCalls(t *testing.T) {
	inj := NewPreambleInjector()
	res := drive(t, inj, seq(1, 3), starts(0), 0, 1)

	require.GreaterOrEqual(t, len(res.trace), 4)
	assert.Equal(t, []int{1, 1, 1, 1}, res.trace[:4])
	assert.Equal(t, concat(pre, seq(1, 3)), res.out)
}

func TestInjectorStepStates(t *testing.T) {
	inj := NewPreambleInjector()
	assert.Equal(t, Forwarding, inj.State())

	in := &stream.Input{Items: seq(1, 5), Tags: starts(0)}
	out := &stream.Output{Items: make([]byte, 3)}
	consumed, produced := inj.Work(in, out)
	assert.Equal(t, 0, consumed)
	assert.Equal(t, 3, produced)
	assert.Equal(t, EmittingPreamble, inj.State())
	assert.Equal(t, 3, inj.Cursor())
	assert.Equal(t, pre[:3], out.Items)

	out = &stream.Output{Items: make([]byte, 3)}
	consumed, produced = inj.Work(in, out)
	assert.Equal(t, 0, consumed)
	assert.Equal(t, 1, produced)
	assert.Equal(t, WaitingForPayload, inj.State())
	assert.Equal(t, pre[3:], out.Items[:1])

	out = &stream.Output{Items: make([]byte, 3)}
	consumed, produced = inj.Work(in, out)
	assert.Equal(t, 3, consumed)
	assert.Equal(t, 3, produced)
	assert.Equal(t, Forwarding, inj.State())
	assert.Equal(t, seq(1, 3), out.Items)
}

func TestInjectorPreambleLimitedByAvailableInput(t *testing.T) {
	inj := NewPreambleInjector()
	in := &stream.Input{Items: seq(1, 2), Tags: starts(0)}
	out := &stream.Output{Items: make([]byte, 8)}

	_, produced := inj.Work(in, out)
	assert.Equal(t, 2, produced)
	assert.Equal(t, 2, inj.Cursor())
}

func TestInjectorDiscardsStaleBytes(t *testing.T) {
	inj := NewPreambleInjector()
	res := drive(t, inj, []byte{9, 9, 1, 2, 3}, starts(2), 0)

	assert.Equal(t, concat(pre, seq(1, 3)), res.out)
	assert.NotContains(t, res.out, byte(9))
	assert.Equal(t, uint64(2), inj.Stats().StaleBytes)
}

func TestInjectorStaleDiscardReportsConsumed(t *testing.T) {
	inj := NewPreambleInjector()
	in := &stream.Input{Items: []byte{7, 7, 7, 1}, NRead: 20, Tags: starts(23)}
	out := &stream.Output{Items: make([]byte, 4)}

	consumed, produced := inj.Work(in, out)
	assert.Equal(t, 3, consumed)
	assert.Equal(t, 1, produced, "one input byte remains after the tag")
	assert.Equal(t, pre[:1], out.Items[:1])
}

func TestInjectorIgnoresTagWhileEmitting(t *testing.T) {
	inj := NewPreambleInjector()
	res := drive(t, inj, seq(1, 5), starts(0, 2), 0, 2, 2, 100)

	assert.Equal(t, concat(pre, seq(1, 5)), res.out)
	assert.Equal(t, uint64(1), inj.Stats().Preambles)
	assert.Equal(t, uint64(1), inj.Stats().IgnoredTags, "the tag at offset 2 is counted once")
}

func TestInjectorIgnoresTagBeforePayloadForwarded(t *testing.T) {
	inj := NewPreambleInjector()
	in := &stream.Input{Items: seq(1, 6), Tags: starts(0)}
	out := &stream.Output{Items: make([]byte, 4)}
	inj.Work(in, out)
	require.Equal(t, WaitingForPayload, inj.State())

	// A boundary at offset 3 arrives before any payload went out.
	in = &stream.Input{Items: seq(1, 6), Tags: starts(0, 3)}
	out = &stream.Output{Items: make([]byte, 6)}
	consumed, produced := inj.Work(in, out)
	assert.Equal(t, 6, consumed)
	assert.Equal(t, 6, produced)
	assert.Equal(t, seq(1, 6), out.Items)
	assert.Equal(t, uint64(1), inj.Stats().Preambles)
}

func TestInjectorBackToBackPackets(t *testing.T) {
	want := concat(pre, seq(1, 3), pre, seq(4, 6))

	t.Run("input chunks of one packet", func(t *testing.T) {
		res := drive(t, NewPreambleInjector(), seq(1, 6), starts(0, 3), 3)
		assert.Equal(t, want, res.out)
	})

	t.Run("aligned windows", func(t *testing.T) {
		res := drive(t, NewPreambleInjector(WithAlignedWindows(true)), seq(1, 6), starts(0, 3), 0)
		assert.Equal(t, want, res.out)
	})

	t.Run("aligned windows with one byte output", func(t *testing.T) {
		res := drive(t, NewPreambleInjector(WithAlignedWindows(true)), seq(1, 6), starts(0, 3), 0, 1)
		assert.Equal(t, want, res.out)
	})

	t.Run("greedy windows miss the second boundary", func(t *testing.T) {
		inj := NewPreambleInjector()
		res := drive(t, inj, seq(1, 6), starts(0, 3), 0)
		assert.Equal(t, concat(pre, seq(1, 6)), res.out)
		assert.Equal(t, uint64(1), inj.Stats().IgnoredTags)
	})
}

func TestInjectorPassThroughWithoutTags(t *testing.T) {
	data := seq(1, 50)
	for _, chunk := range []int{0, 1, 3, 7, 50} {
		for _, outCap := range []int{1, 4, 13} {
			inj := NewPreambleInjector()
			res := drive(t, inj, data, nil, chunk, outCap)
			assert.Equal(t, data, res.out, "in %d out %d", chunk, outCap)
			assert.Zero(t, inj.Stats().PreambleBytes)
		}
	}
}

func TestInjectorBackPressure(t *testing.T) {
	inj := NewPreambleInjector()

	consumed, produced := inj.Work(&stream.Input{}, &stream.Output{Items: make([]byte, 4)})
	assert.Zero(t, consumed)
	assert.Zero(t, produced)

	consumed, produced = inj.Work(&stream.Input{Items: seq(1, 3)}, &stream.Output{})
	assert.Zero(t, consumed)
	assert.Zero(t, produced)
	assert.Equal(t, Forwarding, inj.State())
}

func TestInjectorCustomPreamble(t *testing.T) {
	custom := []byte{0x7E, 0x7E, 0x7E, 0x7E, 0x7E, 0x7E, 0x2D, 0xD4}
	inj := NewPreambleInjector(WithPreamble(custom))
	assert.Equal(t, custom, inj.Preamble())

	res := drive(t, inj, seq(1, 10), starts(0), 0, 3)
	assert.Equal(t, concat(custom, seq(1, 10)), res.out)
}

func TestInjectorAlignTag(t *testing.T) {
	assert.Equal(t, "", NewPreambleInjector().AlignTag())
	assert.Equal(t, core.TagStartPacket, NewPreambleInjector(WithAlignedWindows(true)).AlignTag())
}

func TestInjectorStateString(t *testing.T) {
	assert.Equal(t, "forwarding", Forwarding.String())
	assert.Equal(t, "waiting_for_payload", WaitingForPayload.String())
	assert.Equal(t, "emitting_preamble", EmittingPreamble.String())
	assert.Equal(t, "unknown", InjectorState(42).String())
}

func TestTaggerAndInjectorChain(t *testing.T) {
	data := seq(1, 10)
	lenTags := []core.Tag{{Key: core.TagPacketLen, Value: 10, Offset: 0}}

	tagged := drive(t, NewBoundaryTagger(), data, lenTags, 4, 4)
	res := drive(t, NewPreambleInjector(), tagged.out, tagged.tags, 0)
	assert.Equal(t, concat(pre, data), res.out)
}
