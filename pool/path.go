// Package pool provides sync.Pool wrappers for reducing GC pressure.
package pool

import (
	"strconv"
	"sync"
)

// PathBuilder builds "SEG.field.component" location strings with a reusable
// byte buffer.
type PathBuilder struct {
	buf []byte
}

var pathBuilderPool = sync.Pool{
	New: func() any {
		return &PathBuilder{
			buf: make([]byte, 0, 64),
		}
	},
}

// AcquirePathBuilder gets a PathBuilder from the pool.
// Call Release() when done to return it to the pool.
func AcquirePathBuilder() *PathBuilder {
	pb := pathBuilderPool.Get().(*PathBuilder)
	pb.Reset()
	return pb
}

// Release returns the PathBuilder to the pool.
func (b *PathBuilder) Release() {
	if b == nil {
		return
	}
	// Don't return oversized buffers to the pool
	if cap(b.buf) <= 1024 {
		pathBuilderPool.Put(b)
	}
}

// Reset clears the buffer without deallocating.
func (b *PathBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Len returns the current length of the path.
func (b *PathBuilder) Len() int {
	return len(b.buf)
}

// WriteString appends a string to the path.
func (b *PathBuilder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// AppendWithDot appends a part with a leading dot if the buffer is not empty.
func (b *PathBuilder) AppendWithDot(part string) {
	if len(b.buf) > 0 {
		b.buf = append(b.buf, '.')
	}
	b.buf = append(b.buf, part...)
}

// AppendPosition appends a 1-based position with a leading dot.
func (b *PathBuilder) AppendPosition(pos int) {
	if len(b.buf) > 0 {
		b.buf = append(b.buf, '.')
	}
	b.buf = strconv.AppendInt(b.buf, int64(pos), 10)
}

// AppendRepetition appends a 1-based repetition number in parentheses.
// The first repetition is implied and not written.
func (b *PathBuilder) AppendRepetition(rep int) {
	if rep <= 1 {
		return
	}
	b.buf = append(b.buf, '(')
	b.buf = strconv.AppendInt(b.buf, int64(rep), 10)
	b.buf = append(b.buf, ')')
}

// String returns the built path as a string.
func (b *PathBuilder) String() string {
	return string(b.buf)
}

// BuildPath is a convenience function that builds a path using a callback.
// The PathBuilder is automatically returned to the pool after the callback.
//
// Example:
//
//	loc := pool.BuildPath(func(b *pool.PathBuilder) {
//	    b.WriteString("PID")
//	    b.AppendPosition(3)
//	    b.AppendRepetition(2)
//	    b.AppendPosition(1)
//	})
//	// loc == "PID.3(2).1"
func BuildPath(fn func(*PathBuilder)) string {
	pb := AcquirePathBuilder()
	defer pb.Release()
	fn(pb)
	return pb.String()
}

// Location renders a segment name followed by 1-based positions, e.g. "PID.3.1".
func Location(segment string, positions ...int) string {
	if len(positions) == 0 {
		return segment
	}
	pb := AcquirePathBuilder()
	defer pb.Release()
	pb.WriteString(segment)
	for _, p := range positions {
		pb.AppendPosition(p)
	}
	return pb.String()
}
