// Package frame holds the PDU processors that run before a PDU becomes a
// tagged stream packet.
package frame

import (
	"fmt"

	"firestige.xyz/pktxmt/internal/core"
)

// Processor transforms a PDU.
type Processor interface {
	Name() string
	Process(pdu core.PDU) (core.PDU, error)
}

// Chain applies processors in order.
type Chain []Processor

// Process runs every processor, stopping at the first error.
func (c Chain) Process(pdu core.PDU) (core.PDU, error) {
	var err error
	for _, p := range c {
		pdu, err = p.Process(pdu)
		if err != nil {
			return core.PDU{}, fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	return pdu, nil
}
