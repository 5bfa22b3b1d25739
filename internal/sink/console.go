package sink

import (
	"encoding/hex"

	"firestige.xyz/pktxmt/internal/log"
)

const ConsoleName = "console"

type ConsoleCfg struct {
	Width int `mapstructure:"width"` // bytes per logged line
}

// Console logs the stream as hex, Width bytes per line.
type Console struct {
	width  int
	offset uint64
	logger log.Logger
}

func init() {
	Register(ConsoleName, func(options map[string]interface{}) (Sink, error) {
		var cfg ConsoleCfg
		if err := decode(options, &cfg); err != nil {
			return nil, err
		}
		return NewConsole(cfg, log.GetLogger()), nil
	})
}

func NewConsole(cfg ConsoleCfg, logger log.Logger) *Console {
	if cfg.Width <= 0 {
		cfg.Width = 16
	}
	return &Console{width: cfg.Width, logger: logger.WithField("sink", ConsoleName)}
}

func (c *Console) Name() string { return ConsoleName }

func (c *Console) Write(p []byte) (int, error) {
	for rest := p; len(rest) > 0; {
		n := min(c.width, len(rest))
		c.logger.WithField("offset", c.offset).Info(hex.EncodeToString(rest[:n]))
		c.offset += uint64(n)
		rest = rest[n:]
	}
	return len(p), nil
}

func (c *Console) Close() error { return nil }
