package source

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/pktxmt/internal/core"
)

const StrobeName = "strobe"

// StrobeCfg configures a Strobe.
type StrobeCfg struct {
	Data   string        `mapstructure:"data"` // hex
	Period time.Duration `mapstructure:"period"`
	Count  int           `mapstructure:"count"` // 0 = forever
}

// Strobe emits the same PDU once per period.
type Strobe struct {
	data   []byte
	period time.Duration
	count  int
}

func init() {
	Register(StrobeName, func(options map[string]interface{}) (PDUSource, error) {
		var cfg StrobeCfg
		if err := decode(options, &cfg); err != nil {
			return nil, err
		}
		data, err := hex.DecodeString(cfg.Data)
		if err != nil {
			return nil, fmt.Errorf("invalid data: %w", err)
		}
		return NewStrobe(data, cfg.Period, cfg.Count)
	})
}

// NewStrobe creates a strobe. A zero period defaults to 100ms.
func NewStrobe(data []byte, period time.Duration, count int) (*Strobe, error) {
	if len(data) == 0 {
		return nil, core.ErrPDUEmpty
	}
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	return &Strobe{data: append([]byte(nil), data...), period: period, count: count}, nil
}

func (s *Strobe) Name() string { return StrobeName }

func (s *Strobe) Run(ctx context.Context, out chan<- core.PDU) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for sent := 0; s.count == 0 || sent < s.count; sent++ {
		pdu := core.PDU{Data: append([]byte(nil), s.data...), Timestamp: time.Now()}
		if err := emit(ctx, out, pdu); err != nil {
			return err
		}
		if s.count != 0 && sent+1 == s.count {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// decode maps an option map onto a typed config, accepting duration strings.
func decode(options map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	return nil
}
