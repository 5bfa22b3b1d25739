// Package sensor bridges a line-oriented sensor (a serial device printing one
// reading per line) onto the message bus.
package sensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/pmt"
)

// ValueSize is the encoded size of a reading.
const ValueSize = 8

// EncodeFloat64 packs v as a big-endian IEEE-754 double.
func EncodeFloat64(v float64) []byte {
	out := make([]byte, ValueSize)
	binary.BigEndian.PutUint64(out, math.Float64bits(v))
	return out
}

// DecodeFloat64 reads a big-endian double from the first 8 bytes of b. Extra
// bytes are ignored.
func DecodeFloat64(b []byte) (float64, error) {
	if len(b) < ValueSize {
		return 0, fmt.Errorf("%w: need %d bytes, got %d", core.ErrPayloadTooShort, ValueSize, len(b))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:ValueSize])), nil
}

// EncodeMessage wraps a reading in the bus container.
func EncodeMessage(v float64) []byte {
	return pmt.EncodeU8Pair(EncodeFloat64(v))
}

// DecodeMessage unwraps a bus container and decodes the reading.
func DecodeMessage(msg []byte) (float64, error) {
	data, err := pmt.DecodeU8Pair(msg)
	if err != nil {
		return 0, err
	}
	return DecodeFloat64(data)
}
