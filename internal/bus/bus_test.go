package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFanOut(t *testing.T) {
	m := NewMemory(4)
	a, b := m.Subscribe(), m.Subscribe()

	require.NoError(t, m.Publish(context.Background(), []byte{1, 2}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, s := range []*MemorySubscriber{a, b} {
		msg, err := s.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2}, msg)
	}
}

func TestMemoryDropsWhenFull(t *testing.T) {
	m := NewMemory(1)
	s := m.Subscribe()
	ctx := context.Background()
	require.NoError(t, m.Publish(ctx, []byte{1}))
	require.NoError(t, m.Publish(ctx, []byte{2}))

	msg, err := s.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, msg)

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = s.Receive(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryClose(t *testing.T) {
	m := NewMemory(0)
	s := m.Subscribe()
	require.NoError(t, s.Close())
	_, err := s.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	s2 := m.Subscribe()
	require.NoError(t, m.Close())
	_, err = s2.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Publish(context.Background(), nil), ErrClosed)
	assert.NoError(t, s2.Close())
}

func TestKafkaConfigValidation(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaConfig{Topic: "t"})
	assert.Error(t, err)
	_, err = NewKafkaSubscriber(KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	p, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "sensor"})
	require.NoError(t, err)
	assert.NoError(t, p.Close())

	s, err := NewKafkaSubscriber(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "sensor", AutoOffsetReset: "earliest"})
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
