// Package core defines core stream types with zero external dependencies.
package core

import "fmt"

// Well-known tag keys.
const (
	// TagPacketLen marks the first byte of a packet; its value is the packet
	// length in bytes.
	TagPacketLen = "packet_len"
	// TagStartPacket marks the first byte of a packet accepted for framing.
	// It carries no value.
	TagStartPacket = "start_packet"
)

// Tag is metadata bound to an absolute position in a byte stream.
type Tag struct {
	Key    string
	Value  any
	Offset uint64 // absolute stream position
	Srcid  string // name of the block that attached the tag, optional
}

func (t Tag) String() string {
	if t.Value == nil {
		return fmt.Sprintf("{%s @%d}", t.Key, t.Offset)
	}
	return fmt.Sprintf("{%s=%v @%d}", t.Key, t.Value, t.Offset)
}

// IntValue converts an integer tag value to int64.
// ok is false for nil or non-integer values.
func (t Tag) IntValue() (v int64, ok bool) {
	switch n := t.Value.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > 1<<63-1 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
