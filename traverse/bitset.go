package traverse

import (
	"math/bits"
	"sync/atomic"
)

// Bitset is a fixed-size bit-vector with an atomic test-and-set, used as the
// shared visited set during parallel traversal. The fetch-or makes exactly
// one goroutine the first visitor of any position, which is what keeps the
// visited set deterministic under arbitrary scheduling.
type Bitset struct {
	words []uint64
	n     uint64
}

// NewBitset creates a bitset for positions [0, n).
func NewBitset(n uint64) *Bitset {
	return &Bitset{words: make([]uint64, (n+63)/64), n: n}
}

// Len returns the number of addressable positions.
func (b *Bitset) Len() uint64 { return b.n }

// TrySet atomically sets bit i and reports whether this call was the one
// that flipped it from zero. i must be < Len.
func (b *Bitset) TrySet(i uint64) bool {
	mask := uint64(1) << (i & 63)
	w := &b.words[i>>6]
	for {
		old := atomic.LoadUint64(w)
		if old&mask != 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(w, old, old|mask) {
			return true
		}
	}
}

// Test reports whether bit i is set.
func (b *Bitset) Test(i uint64) bool {
	return atomic.LoadUint64(&b.words[i>>6])&(uint64(1)<<(i&63)) != 0
}

// Count returns the number of set bits. Call only after concurrent setters
// have finished; it reads words individually.
func (b *Bitset) Count() uint64 {
	var c uint64
	for i := range b.words {
		c += uint64(bits.OnesCount64(b.words[i]))
	}
	return c
}

// AppendSet appends the positions of all set bits to dst in ascending order.
func (b *Bitset) AppendSet(dst []uint64) []uint64 {
	for wi, w := range b.words {
		for w != 0 {
			bit := uint64(bits.TrailingZeros64(w))
			dst = append(dst, uint64(wi)*64+bit)
			w &= w - 1
		}
	}
	return dst
}
