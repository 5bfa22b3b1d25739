package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/stream"
)

// runResult is what drive observed.
type runResult struct {
	out   []byte
	tags  []core.Tag
	calls int
	// produced per invocation, in order
	trace []int
}

// drive feeds data and tags through a single block the way the scheduler
// does, until a call makes no progress. outCaps, when non-empty, sets the
// output capacity of successive calls (the last entry repeats).
func drive(t *testing.T, b Block, data []byte, tags []core.Tag, inChunk int, outCaps ...int) runResult {
	t.Helper()

	in, err := stream.NewBuffer(len(data) + 1)
	require.NoError(t, err)
	in.Write(data)
	for _, tag := range tags {
		in.AddTag(tag)
	}
	sink, err := stream.NewBuffer(4096)
	require.NoError(t, err)

	var res runResult
	for i := 0; i < 10000; i++ {
		limit := 0
		if len(outCaps) > 0 {
			limit = outCaps[len(outCaps)-1]
			if i < len(outCaps) {
				limit = outCaps[i]
			}
		}
		win := in.InputWindow(inChunk)
		if a, ok := b.(Aligner); ok && a.AlignTag() != "" {
			win.CutAtTag(a.AlignTag())
		}
		ow := sink.OutputWindow(limit)
		consumed, produced := b.Work(win, ow)
		res.calls++
		in.Consume(consumed)
		sink.Commit(ow, produced)
		res.trace = append(res.trace, produced)
		if consumed == 0 && produced == 0 {
			break
		}
	}
	res.out = append(res.out, sink.Readable()...)
	res.tags = sink.Tags(0, sink.NWritten())
	return res
}

func seq(from, to byte) []byte {
	var out []byte
	for b := from; b <= to; b++ {
		out = append(out, b)
	}
	return out
}

func starts(offsets ...uint64) []core.Tag {
	tags := make([]core.Tag, 0, len(offsets))
	for _, o := range offsets {
		tags = append(tags, core.Tag{Key: core.TagStartPacket, Offset: o})
	}
	return tags
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
