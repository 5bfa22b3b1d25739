package stream

import (
	"firestige.xyz/pktxmt/internal/core"
)

// Buffer is a single-writer, single-reader edge between two blocks. It holds
// the bytes produced but not yet consumed, tracks absolute read and write
// counters and retains the tags attached to the unread range.
type Buffer struct {
	data     []byte
	capacity int
	nread    uint64
	tags     *TagIndex
}

// NewBuffer creates a buffer that holds at most capacity unread bytes.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, core.ErrBufferTooSmall
	}
	return &Buffer{
		data:     make([]byte, 0, capacity),
		capacity: capacity,
		tags:     NewTagIndex(),
	}, nil
}

// NRead is the number of bytes consumed from the buffer so far.
func (b *Buffer) NRead() uint64 { return b.nread }

// NWritten is the number of bytes written to the buffer so far.
func (b *Buffer) NWritten() uint64 { return b.nread + uint64(len(b.data)) }

// Available is the number of unread bytes.
func (b *Buffer) Available() int { return len(b.data) }

// Space is the number of bytes that can be written before the buffer is full.
func (b *Buffer) Space() int { return b.capacity - len(b.data) }

// Capacity returns the configured capacity.
func (b *Buffer) Capacity() int { return b.capacity }

// Readable returns the unread bytes. The slice is only valid until the next
// Write or Consume.
func (b *Buffer) Readable() []byte { return b.data }

// Write appends as much of p as fits and returns the count written.
func (b *Buffer) Write(p []byte) int {
	n := len(p)
	if space := b.Space(); n > space {
		n = space
	}
	b.data = append(b.data, p[:n]...)
	return n
}

// AddTag attaches a tag. Tags may be attached ahead of the bytes they refer
// to; tags behind the read position are dropped.
func (b *Buffer) AddTag(t core.Tag) {
	if t.Offset < b.nread {
		return
	}
	b.tags.Add(t)
}

// Tags returns the tags in [start, end) that are still retained.
func (b *Buffer) Tags(start, end uint64) []core.Tag {
	return b.tags.Range(start, end)
}

// Consume drops n bytes from the front and prunes tags behind the new read
// position. n is clamped to the number of unread bytes.
func (b *Buffer) Consume(n int) {
	if n <= 0 {
		return
	}
	if n > len(b.data) {
		n = len(b.data)
	}
	rest := copy(b.data, b.data[n:])
	b.data = b.data[:rest]
	b.nread += uint64(n)
	b.tags.Prune(b.nread)
}
