package frame

import (
	"encoding/binary"
	"hash/crc32"

	"firestige.xyz/pktxmt/internal/core"
)

// CRCSize is the number of bytes CRCAppend adds.
const CRCSize = 4

// CRCAppend appends the CRC-32 (IEEE 802.3, reflected, init and final xor
// 0xFFFFFFFF) of the payload, most significant byte first.
type CRCAppend struct{}

func (CRCAppend) Name() string { return "crc_append" }

func (CRCAppend) Process(pdu core.PDU) (core.PDU, error) {
	if len(pdu.Data) == 0 {
		return core.PDU{}, core.ErrPDUEmpty
	}
	out := make([]byte, len(pdu.Data)+CRCSize)
	copy(out, pdu.Data)
	binary.BigEndian.PutUint32(out[len(pdu.Data):], crc32.ChecksumIEEE(pdu.Data))
	pdu.Data = out
	return pdu, nil
}

// CheckCRC verifies a buffer produced by CRCAppend.
func CheckCRC(data []byte) bool {
	if len(data) < CRCSize {
		return false
	}
	body := data[:len(data)-CRCSize]
	return binary.BigEndian.Uint32(data[len(body):]) == crc32.ChecksumIEEE(body)
}
