package source

import (
	"context"
	"errors"
	"time"

	"firestige.xyz/pktxmt/internal/bus"
	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/log"
	"firestige.xyz/pktxmt/internal/pmt"
)

const BusName = "bus"

// Bus turns every pair(nil, u8vector) message on a subscriber into a PDU.
type Bus struct {
	sub    bus.Subscriber
	logger log.Logger
}

func init() {
	Register(BusName, func(options map[string]interface{}) (PDUSource, error) {
		var cfg bus.KafkaConfig
		if err := decode(options, &cfg); err != nil {
			return nil, err
		}
		sub, err := bus.NewKafkaSubscriber(cfg)
		if err != nil {
			return nil, err
		}
		return NewBus(sub), nil
	})
}

func NewBus(sub bus.Subscriber) *Bus {
	return &Bus{
		sub:    sub,
		logger: log.GetLogger().WithField("source", BusName),
	}
}

func (b *Bus) Name() string { return BusName }

// Run closes the subscriber when it returns.
func (b *Bus) Run(ctx context.Context, out chan<- core.PDU) error {
	defer b.sub.Close()
	for {
		msg, err := b.sub.Receive(ctx)
		if err != nil {
			if errors.Is(err, bus.ErrClosed) {
				return nil
			}
			return err
		}
		data, err := pmt.DecodeU8Pair(msg)
		if err != nil {
			b.logger.WithError(err).Warn("dropping malformed bus message")
			continue
		}
		if len(data) == 0 {
			continue
		}
		if err := emit(ctx, out, core.PDU{Data: data, Timestamp: time.Now()}); err != nil {
			return err
		}
	}
}
