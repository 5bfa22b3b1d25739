// Package stream implements bounded byte windows over unbounded tagged
// streams.
package stream

import (
	"sort"

	"firestige.xyz/pktxmt/internal/core"
)

// TagIndex keeps tags sorted by absolute offset. Tags sharing an offset keep
// insertion order.
type TagIndex struct {
	tags []core.Tag
}

// NewTagIndex creates an empty index.
func NewTagIndex() *TagIndex {
	return &TagIndex{}
}

// Add inserts a tag after any existing tag with the same offset.
func (x *TagIndex) Add(t core.Tag) {
	i := sort.Search(len(x.tags), func(i int) bool { return x.tags[i].Offset > t.Offset })
	x.tags = append(x.tags, core.Tag{})
	copy(x.tags[i+1:], x.tags[i:])
	x.tags[i] = t
}

// Range returns the tags with offset in [start, end), in order.
// The returned slice is a copy.
func (x *TagIndex) Range(start, end uint64) []core.Tag {
	if end <= start {
		return nil
	}
	lo := sort.Search(len(x.tags), func(i int) bool { return x.tags[i].Offset >= start })
	hi := sort.Search(len(x.tags), func(i int) bool { return x.tags[i].Offset >= end })
	if lo == hi {
		return nil
	}
	out := make([]core.Tag, hi-lo)
	copy(out, x.tags[lo:hi])
	return out
}

// Prune drops every tag with offset below before.
func (x *TagIndex) Prune(before uint64) {
	i := sort.Search(len(x.tags), func(i int) bool { return x.tags[i].Offset >= before })
	if i == 0 {
		return
	}
	n := copy(x.tags, x.tags[i:])
	for j := n; j < len(x.tags); j++ {
		x.tags[j] = core.Tag{}
	}
	x.tags = x.tags[:n]
}

// Len returns the number of retained tags.
func (x *TagIndex) Len() int {
	return len(x.tags)
}
