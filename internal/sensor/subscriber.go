package sensor

import (
	"context"
	"errors"

	"firestige.xyz/pktxmt/internal/bus"
	"firestige.xyz/pktxmt/internal/log"
	"firestige.xyz/pktxmt/internal/metrics"
)

// Subscriber decodes readings received from the bus.
type Subscriber struct {
	sub    bus.Subscriber
	logger log.Logger
}

func NewSubscriber(sub bus.Subscriber) *Subscriber {
	return &Subscriber{
		sub:    sub,
		logger: log.GetLogger().WithField("component", "sensor_subscriber"),
	}
}

// Run calls handle for every decodable reading until ctx is done or the bus
// fails. Undecodable messages are logged and skipped.
func (s *Subscriber) Run(ctx context.Context, handle func(float64)) error {
	for {
		msg, err := s.sub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, bus.ErrClosed) {
				return nil
			}
			return err
		}
		v, err := DecodeMessage(msg)
		if err != nil {
			metrics.SensorMessagesTotal.WithLabelValues("received", "decode_error").Inc()
			s.logger.WithError(err).Warn("failed to decode sensor message")
			continue
		}
		metrics.SensorMessagesTotal.WithLabelValues("received", "ok").Inc()
		handle(v)
	}
}
