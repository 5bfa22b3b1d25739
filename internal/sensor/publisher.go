package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"firestige.xyz/pktxmt/internal/bus"
	"firestige.xyz/pktxmt/internal/log"
	"firestige.xyz/pktxmt/internal/metrics"
)

// Publisher reads one reading per line and publishes each on the bus.
type Publisher struct {
	r        io.Reader
	pub      bus.Publisher
	interval time.Duration
	logger   log.Logger
}

// NewPublisher creates a publisher. interval is the pause after each
// published reading; lines read in the meantime wait their turn. Zero
// publishes every line as soon as it is read.
func NewPublisher(r io.Reader, pub bus.Publisher, interval time.Duration) *Publisher {
	return &Publisher{
		r:        r,
		pub:      pub,
		interval: interval,
		logger:   log.GetLogger().WithField("component", "sensor_publisher"),
	}
}

type line struct {
	text string
	err  error
}

// Run publishes until the reader is exhausted or ctx is done. Lines that do
// not parse as a number are logged and skipped.
func (p *Publisher) Run(ctx context.Context) error {
	lines := make(chan line)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(p.r)
		for sc.Scan() {
			select {
			case lines <- line{text: sc.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			select {
			case lines <- line{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	var pace *time.Timer
	if p.interval > 0 {
		pace = time.NewTimer(0)
		defer pace.Stop()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			if l.err != nil {
				return fmt.Errorf("read sensor: %w", l.err)
			}
			if pace != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-pace.C:
				}
			}
			err := p.publishLine(ctx, l.text)
			if pace != nil {
				pace.Reset(p.interval)
			}
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				p.logger.WithError(err).Warn("sensor reading dropped")
			}
		}
	}
}

func (p *Publisher) publishLine(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("empty line")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		metrics.SensorMessagesTotal.WithLabelValues("published", "parse_error").Inc()
		return fmt.Errorf("parse %q: %w", text, err)
	}
	if err := p.pub.Publish(ctx, EncodeMessage(v)); err != nil {
		metrics.SensorMessagesTotal.WithLabelValues("published", "error").Inc()
		return err
	}
	metrics.SensorMessagesTotal.WithLabelValues("published", "ok").Inc()
	p.logger.WithField("value", v).Debug("sensor reading published")
	return nil
}
