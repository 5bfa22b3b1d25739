// Package core defines core data structures with zero external dependencies.
package core

import "time"

// PDU is a protocol data unit: one packet worth of payload bytes plus the
// metadata it was received with.
type PDU struct {
	Data      []byte
	Timestamp time.Time
	Meta      map[string]any // optional, e.g. "src" for pcap sourced payloads
}

// Len returns the payload length.
func (p PDU) Len() int {
	return len(p.Data)
}

// Clone returns a deep copy of the payload, sharing Meta.
func (p PDU) Clone() PDU {
	data := make([]byte, len(p.Data))
	copy(data, p.Data)
	return PDU{Data: data, Timestamp: p.Timestamp, Meta: p.Meta}
}
