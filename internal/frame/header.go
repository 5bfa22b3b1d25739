package frame

import (
	"encoding/binary"
	"fmt"
	"strings"

	"firestige.xyz/pktxmt/internal/core"
)

// DefaultAccessCode is the 32-bit access code of the default header format.
const DefaultAccessCode = "11100001010110101110100010010011"

// MaxPayloadLen is the largest payload the 16-bit length field can describe.
const MaxPayloadLen = 0xFFFF

// HeaderFormatter prefixes each PDU with the default header:
//
//	access code | len (16 bit) | len (16 bit) | payload
//
// All fields are most significant bit first.
type HeaderFormatter struct {
	accessCode []byte
}

// NewHeaderFormatter parses an access code given as a string of '0' and '1'.
// The bit count must be a positive multiple of 8.
func NewHeaderFormatter(bits string) (*HeaderFormatter, error) {
	if bits == "" {
		bits = DefaultAccessCode
	}
	code, err := ParseBits(bits)
	if err != nil {
		return nil, err
	}
	return &HeaderFormatter{accessCode: code}, nil
}

func (h *HeaderFormatter) Name() string { return "header_format" }

// HeaderLen is the number of bytes Process adds.
func (h *HeaderFormatter) HeaderLen() int { return len(h.accessCode) + 4 }

// AccessCode returns the packed access code.
func (h *HeaderFormatter) AccessCode() []byte {
	return append([]byte(nil), h.accessCode...)
}

func (h *HeaderFormatter) Process(pdu core.PDU) (core.PDU, error) {
	n := len(pdu.Data)
	if n == 0 {
		return core.PDU{}, core.ErrPDUEmpty
	}
	if n > MaxPayloadLen {
		return core.PDU{}, fmt.Errorf("%w: %d bytes", core.ErrPDUTooLarge, n)
	}

	out := make([]byte, 0, h.HeaderLen()+n)
	out = append(out, h.accessCode...)
	out = binary.BigEndian.AppendUint16(out, uint16(n))
	out = binary.BigEndian.AppendUint16(out, uint16(n))
	out = append(out, pdu.Data...)
	pdu.Data = out
	return pdu, nil
}

// ParseBits packs a string of '0'/'1' characters MSB first.
func ParseBits(bits string) ([]byte, error) {
	bits = strings.TrimSpace(bits)
	if len(bits) == 0 || len(bits)%8 != 0 {
		return nil, fmt.Errorf("%w: access code must be a positive multiple of 8 bits, got %d",
			core.ErrConfigInvalid, len(bits))
	}
	out := make([]byte, len(bits)/8)
	for i, c := range bits {
		switch c {
		case '1':
			out[i/8] |= 0x80 >> (i % 8)
		case '0':
		default:
			return nil, fmt.Errorf("%w: invalid bit %q in access code", core.ErrConfigInvalid, c)
		}
	}
	return out, nil
}
