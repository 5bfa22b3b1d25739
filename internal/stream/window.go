package stream

import "firestige.xyz/pktxmt/internal/core"

// Input is the read window handed to a block for a single invocation.
type Input struct {
	Items []byte
	// NRead is the absolute position of Items[0].
	NRead uint64
	Tags  []core.Tag
}

// TagsInWindow returns the tags with the given key whose offset lies in
// [NRead+start, NRead+end). An empty key matches every tag.
func (in *Input) TagsInWindow(key string, start, end int) []core.Tag {
	if end > len(in.Items) {
		end = len(in.Items)
	}
	if start < 0 {
		start = 0
	}
	lo := in.NRead + uint64(start)
	hi := in.NRead + uint64(end)
	var out []core.Tag
	for _, t := range in.Tags {
		if t.Offset < lo || t.Offset >= hi {
			continue
		}
		if key != "" && t.Key != key {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Output is the write window handed to a block for a single invocation.
type Output struct {
	Items []byte
	// NWritten is the absolute position Items[0] will occupy.
	NWritten uint64
	tags     []core.Tag
}

// AddTag attaches a tag to the output stream at an absolute offset.
func (out *Output) AddTag(t core.Tag) {
	out.tags = append(out.tags, t)
}

// Tags returns the tags attached during the invocation.
func (out *Output) Tags() []core.Tag {
	return out.tags
}

// InputWindow builds an input window over the unread bytes, at most limit
// bytes long when limit > 0.
func (b *Buffer) InputWindow(limit int) *Input {
	items := b.data
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return &Input{
		Items: items,
		NRead: b.nread,
		Tags:  b.Tags(b.nread, b.nread+uint64(len(items))),
	}
}

// OutputWindow builds an empty output window sized to the free space, at most
// limit bytes when limit > 0.
func (b *Buffer) OutputWindow(limit int) *Output {
	n := b.Space()
	if limit > 0 && n > limit {
		n = limit
	}
	return &Output{
		Items:    make([]byte, n),
		NWritten: b.NWritten(),
	}
}

// Commit writes the first produced bytes of out and the tags it carries.
func (b *Buffer) Commit(out *Output, produced int) int {
	if produced > len(out.Items) {
		produced = len(out.Items)
	}
	n := b.Write(out.Items[:produced])
	for _, t := range out.tags {
		b.AddTag(t)
	}
	return n
}

// CutAtTag shortens the window so it ends right before the first tag with
// the given key that lies beyond Items[0]. Tags outside the shortened window
// are dropped from it.
func (in *Input) CutAtTag(key string) {
	for _, t := range in.Tags {
		if t.Key != key || t.Offset <= in.NRead {
			continue
		}
		end := t.Offset - in.NRead
		if end >= uint64(len(in.Items)) {
			return
		}
		in.Items = in.Items[:end]
		kept := in.Tags[:0:0]
		for _, k := range in.Tags {
			if k.Offset < t.Offset {
				kept = append(kept, k)
			}
		}
		in.Tags = kept
		return
	}
}
