// Package bytepool recycles the small byte buffers the forest package
// hashes through, relieving GC pressure on the parent-hash hot path.
// Grounded on the teacher's common.FreeBytes (common/common.go), pared
// down to just what ParentHash needs.
package bytepool

import "sync"

// Buf is a reusable byte slice. Callers must call Free when done.
type Buf struct {
	B []byte
}

var pool = sync.Pool{
	New: func() interface{} { return new(Buf) },
}

// Get returns a Buf of exactly the given length, reusing a pooled
// buffer's capacity when it is large enough. A reused buffer's bytes
// are not zeroed.
func Get(length int) *Buf {
	b := pool.Get().(*Buf)
	if cap(b.B) < length {
		b.B = make([]byte, length)
	} else {
		b.B = b.B[:length]
	}
	return b
}

// Free returns b to the pool.
func Free(b *Buf) {
	b.B = b.B[:0]
	pool.Put(b)
}
