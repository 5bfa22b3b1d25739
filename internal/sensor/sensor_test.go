package sensor

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktxmt/internal/bus"
	"firestige.xyz/pktxmt/internal/core"
)

func TestEncodeFloat64BigEndian(t *testing.T) {
	assert.Equal(t, []byte{0x40, 0x37, 0, 0, 0, 0, 0, 0}, EncodeFloat64(23.0))
	assert.Equal(t, []byte{0xC0, 0, 0, 0, 0, 0, 0, 0}, EncodeFloat64(-2))
}

func TestDecodeFloat64(t *testing.T) {
	for _, v := range []float64{0, 21.5, -40.25, math.MaxFloat64, math.Inf(1)} {
		got, err := DecodeFloat64(EncodeFloat64(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	// Only the first 8 bytes count.
	got, err := DecodeFloat64(append(EncodeFloat64(1.5), 0xFF, 0xFF))
	require.NoError(t, err)
	assert.Equal(t, 1.5, got)

	_, err = DecodeFloat64([]byte{1, 2, 3})
	assert.ErrorIs(t, err, core.ErrPayloadTooShort)
}

func TestDecodeMessage(t *testing.T) {
	v, err := DecodeMessage(EncodeMessage(19.75))
	require.NoError(t, err)
	assert.Equal(t, 19.75, v)

	_, err = DecodeMessage([]byte{0x04})
	assert.ErrorIs(t, err, core.ErrContainerType)
}

func TestPublisherToSubscriber(t *testing.T) {
	m := bus.NewMemory(16)
	sub := NewSubscriber(m.Subscribe())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var mu sync.Mutex
	var got []float64
	done := make(chan error, 1)
	go func() {
		done <- sub.Run(ctx, func(v float64) {
			mu.Lock()
			got = append(got, v)
			n := len(got)
			mu.Unlock()
			if n == 3 {
				cancel()
			}
		})
	}()

	input := "21.5\nnot-a-number\n\n22.0\r\n-3\n"
	pub := NewPublisher(strings.NewReader(input), m, 0)
	require.NoError(t, pub.Run(context.Background()))

	require.NoError(t, <-done)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{21.5, 22.0, -3}, got)
}

func TestSubscriberSkipsGarbage(t *testing.T) {
	m := bus.NewMemory(4)
	sub := NewSubscriber(m.Subscribe())

	ctx := context.Background()
	require.NoError(t, m.Publish(ctx, []byte{0xFF}))
	require.NoError(t, m.Publish(ctx, EncodeMessage(7)))

	var got []float64
	go func() {
		time.Sleep(50 * time.Millisecond)
		m.Close()
	}()
	require.NoError(t, sub.Run(ctx, func(v float64) { got = append(got, v) }))
	assert.Equal(t, []float64{7}, got)
}

func TestPublisherPacesReadings(t *testing.T) {
	m := bus.NewMemory(16)
	s := m.Subscribe()

	interval := 20 * time.Millisecond
	start := time.Now()
	pub := NewPublisher(strings.NewReader("1\n2\n3\n"), m, interval)
	require.NoError(t, pub.Run(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var got []float64
	for i := 0; i < 3; i++ {
		msg, err := s.Receive(ctx)
		require.NoError(t, err)
		v, err := DecodeMessage(msg)
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []float64{1, 2, 3}, got, "readings within the interval are delayed, not dropped")
}

func TestPublisherPaceStopsOnCancel(t *testing.T) {
	m := bus.NewMemory(16)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	pub := NewPublisher(strings.NewReader("1\n2\n"), m, time.Hour)
	assert.ErrorIs(t, pub.Run(ctx), context.DeadlineExceeded)
}
