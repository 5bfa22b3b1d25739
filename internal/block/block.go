// Package block implements the streaming blocks of the framing chain.
//
// A block is a resumable step function: the scheduler hands it an input
// window and an output window, the block runs to completion and reports how
// many input bytes it consumed and how many output bytes it produced. A block
// that cannot make progress returns (0, 0); that is back-pressure, not an
// error.
package block

import "firestige.xyz/pktxmt/internal/stream"

// Block is a single stage of a flowgraph.
type Block interface {
	Name() string
	Work(in *stream.Input, out *stream.Output) (consumed, produced int)
}

// Aligner is implemented by blocks that want every input window to end right
// before the next tag with the returned key.
type Aligner interface {
	AlignTag() string
}
