// Package pmt encodes the tagged binary container used on the sensor bus:
// a pair whose car is nil and whose cdr is a vector of unsigned bytes,
// serialized with the polymorphic-type wire tags.
package pmt

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/pktxmt/internal/core"
)

// Wire type tags.
const (
	tagTrue          byte = 0x00
	tagFalse         byte = 0x01
	tagSymbol        byte = 0x02
	tagInt32         byte = 0x03
	tagDouble        byte = 0x04
	tagNull          byte = 0x06
	tagPair          byte = 0x07
	tagUniformVector byte = 0x0a

	uvU8 byte = 0x00
)

// u8vector header: type tag, element type, u32 length, pad count, pad byte.
const u8HeaderLen = 1 + 1 + 4 + 1 + 1

// EncodeU8Pair serializes pair(nil, u8vector(data)).
func EncodeU8Pair(data []byte) []byte {
	out := make([]byte, 0, 2+u8HeaderLen+len(data))
	out = append(out, tagPair, tagNull)
	out = append(out, tagUniformVector, uvU8)
	out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, 1, 0) // one pad byte
	out = append(out, data...)
	return out
}

// DecodeU8Pair extracts the byte vector from a serialized pair(car, u8vector).
// The car must be nil or a symbol; its value is discarded.
func DecodeU8Pair(b []byte) ([]byte, error) {
	if len(b) < 2 || b[0] != tagPair {
		return nil, fmt.Errorf("%w: not a pair", core.ErrContainerType)
	}
	rest, err := skipCar(b[1:])
	if err != nil {
		return nil, err
	}
	return decodeU8Vector(rest)
}

func skipCar(b []byte) ([]byte, error) {
	switch b[0] {
	case tagNull, tagTrue, tagFalse:
		return b[1:], nil
	case tagSymbol:
		if len(b) < 3 {
			return nil, fmt.Errorf("%w: truncated symbol", core.ErrContainerMalformed)
		}
		n := int(binary.BigEndian.Uint16(b[1:3]))
		if len(b) < 3+n {
			return nil, fmt.Errorf("%w: truncated symbol", core.ErrContainerMalformed)
		}
		return b[3+n:], nil
	case tagInt32:
		if len(b) < 5 {
			return nil, fmt.Errorf("%w: truncated int32", core.ErrContainerMalformed)
		}
		return b[5:], nil
	case tagDouble:
		if len(b) < 9 {
			return nil, fmt.Errorf("%w: truncated double", core.ErrContainerMalformed)
		}
		return b[9:], nil
	default:
		return nil, fmt.Errorf("%w: unsupported car type 0x%02x", core.ErrContainerType, b[0])
	}
}

func decodeU8Vector(b []byte) ([]byte, error) {
	if len(b) < 2 || b[0] != tagUniformVector {
		return nil, fmt.Errorf("%w: cdr is not a uniform vector", core.ErrContainerType)
	}
	if b[1] != uvU8 {
		return nil, fmt.Errorf("%w: uniform vector element type 0x%02x", core.ErrContainerType, b[1])
	}
	if len(b) < 7 {
		return nil, fmt.Errorf("%w: truncated vector header", core.ErrContainerMalformed)
	}
	n := int(binary.BigEndian.Uint32(b[2:6]))
	npad := int(b[6])
	body := b[7:]
	if len(body) < npad+n {
		return nil, fmt.Errorf("%w: vector of %d bytes truncated to %d", core.ErrContainerMalformed, n, len(body)-npad)
	}
	out := make([]byte, n)
	copy(out, body[npad:npad+n])
	return out, nil
}
