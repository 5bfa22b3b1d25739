package bus

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by a closed in-memory subscriber or publisher.
var ErrClosed = errors.New("bus: closed")

// Memory is an in-process topic. Every subscriber sees every message
// published after it subscribed. Slow subscribers drop messages once their
// queue is full.
type Memory struct {
	mu     sync.Mutex
	subs   map[*MemorySubscriber]struct{}
	queue  int
	closed bool
}

// NewMemory creates a topic with per-subscriber queues of the given depth.
func NewMemory(queue int) *Memory {
	if queue <= 0 {
		queue = 64
	}
	return &Memory{subs: make(map[*MemorySubscriber]struct{}), queue: queue}
}

// Subscribe attaches a new subscriber.
func (m *Memory) Subscribe() *MemorySubscriber {
	s := &MemorySubscriber{
		bus:  m,
		ch:   make(chan []byte, m.queue),
		done: make(chan struct{}),
	}
	m.mu.Lock()
	m.subs[s] = struct{}{}
	m.mu.Unlock()
	return s
}

// Publish delivers a copy of msg to every subscriber.
func (m *Memory) Publish(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for s := range m.subs {
		cp := append([]byte(nil), msg...)
		select {
		case s.ch <- cp:
		default:
		}
	}
	return nil
}

// Close detaches every subscriber.
func (m *Memory) Close() error {
	m.mu.Lock()
	subs := m.subs
	m.subs = make(map[*MemorySubscriber]struct{})
	m.closed = true
	m.mu.Unlock()
	for s := range subs {
		s.closeOnce.Do(func() { close(s.done) })
	}
	return nil
}

// MemorySubscriber receives from a Memory topic.
type MemorySubscriber struct {
	bus       *Memory
	ch        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (s *MemorySubscriber) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-s.ch:
		return msg, nil
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *MemorySubscriber) Close() error {
	s.bus.mu.Lock()
	delete(s.bus.subs, s)
	s.bus.mu.Unlock()
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
