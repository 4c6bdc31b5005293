package pool

import "sync"

// stringSlicePool holds reusable []string for splitting lines into tokens.
var stringSlicePool = sync.Pool{
	New: func() any {
		s := make([]string, 0, 16)
		return &s
	},
}

// AcquireStringSlice gets a string slice from the pool.
func AcquireStringSlice() *[]string {
	s := stringSlicePool.Get().(*[]string)
	*s = (*s)[:0]
	return s
}

// ReleaseStringSlice returns a string slice to the pool.
func ReleaseStringSlice(s *[]string) {
	if s == nil {
		return
	}
	// Don't return oversized slices
	if cap(*s) <= 256 {
		clear(*s)
		stringSlicePool.Put(s)
	}
}

// byteSlicePool holds reusable []byte for encoding segments.
var byteSlicePool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 512)
		return &b
	},
}

// AcquireByteSlice gets a byte slice from the pool.
func AcquireByteSlice() *[]byte {
	b := byteSlicePool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// ReleaseByteSlice returns a byte slice to the pool.
func ReleaseByteSlice(b *[]byte) {
	if b == nil {
		return
	}
	// Don't return oversized slices
	if cap(*b) <= 65536 {
		byteSlicePool.Put(b)
	}
}

// Split splits s on sep into a pooled slice. The caller releases it with
// ReleaseStringSlice once the tokens are no longer referenced by the slice.
func Split(s string, sep byte) *[]string {
	out := AcquireStringSlice()
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			*out = append(*out, s[start:i])
			start = i + 1
		}
	}
	*out = append(*out, s[start:])
	return out
}
