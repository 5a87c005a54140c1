package connection

import "go.uber.org/atomic"

// Buffer is a reference-counted byte buffer. The in-flight window holds one
// reference for the lifetime of a Send Operation (for replay); each write
// dispatch takes and releases an additional reference. Invariant (§3.5):
// every reference handed out is released along every exit path, and no
// reference is released twice.
type Buffer struct {
	data  []byte
	count atomic.Int32
}

// NewBuffer wraps b with an initial reference count of 1. The caller owns
// that first reference and must Release it.
func NewBuffer(b []byte) *Buffer {
	buf := &Buffer{data: b}
	buf.count.Store(1)
	return buf
}

// Bytes returns the underlying slice. Valid only while the caller holds a
// reference.
func (b *Buffer) Bytes() []byte { return b.data }

// Len reports the buffer's byte length.
func (b *Buffer) Len() int { return len(b.data) }

// Retain increments the reference count and returns the same buffer, for
// chaining at call sites that hand the buffer to a second owner (e.g. the
// write dispatch retaining a reference beyond the window's own).
func (b *Buffer) Retain() *Buffer {
	b.count.Inc()
	return b
}

// Release decrements the reference count. It panics on over-release (a
// release past zero is a programming error, not a runtime condition to
// swallow) so the bug surfaces immediately in tests rather than silently
// corrupting pool state.
func (b *Buffer) Release() {
	if n := b.count.Dec(); n < 0 {
		panic("connection: Buffer released more times than it was retained")
	}
}

// RefCount returns the current reference count, for tests.
func (b *Buffer) RefCount() int32 { return b.count.Load() }
