// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Callers wrap them with fmt.Errorf("...: %w").
var (
	// Flowgraph errors
	ErrGraphStopped   = errors.New("pktxmt: flowgraph stopped")
	ErrGraphNotWired  = errors.New("pktxmt: flowgraph has no source or sink")
	ErrBufferTooSmall = errors.New("pktxmt: buffer capacity too small")

	// PDU framing errors
	ErrPDUEmpty    = errors.New("pktxmt: empty pdu")
	ErrPDUTooLarge = errors.New("pktxmt: pdu exceeds maximum length")

	// Container and sensor payload errors
	ErrContainerMalformed = errors.New("pktxmt: malformed container")
	ErrContainerType      = errors.New("pktxmt: unexpected container type")
	ErrPayloadTooShort    = errors.New("pktxmt: payload too short")

	// Plugin lookup errors
	ErrSourceNotFound = errors.New("pktxmt: source type not found")
	ErrSinkNotFound   = errors.New("pktxmt: sink type not found")

	// Configuration errors
	ErrConfigInvalid = errors.New("pktxmt: invalid configuration")
)
