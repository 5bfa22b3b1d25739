package sink

import (
	"bytes"
	"sync"
)

const MemoryName = "memory"

// Memory keeps everything written to it.
type Memory struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func init() {
	Register(MemoryName, func(map[string]interface{}) (Sink, error) {
		return NewMemory(), nil
	})
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Name() string { return MemoryName }

func (m *Memory) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Write(p)
}

// Bytes returns a copy of everything written so far.
func (m *Memory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.buf.Bytes())
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
