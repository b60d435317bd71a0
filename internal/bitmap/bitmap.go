// Package bitmap provides a fixed-capacity bitset keyed by non-negative
// integer IDs. The pipeline uses it as a row mask: trim-mode winsorizing
// marks the positional indexes of rows that fall outside their group's
// cutoffs, and the table layer drops exactly those rows.
package bitmap

import "math/bits"

// Bitmap represents a bitset backed by a slice of uint64 words.
// Each bit corresponds to a non-negative integer ID (a row index).
type Bitmap struct {
	data []uint64
	n    int
}

// New allocates a bitmap that can store bits for IDs in the range [0, n).
//
// If n <= 0, no backing storage is allocated and the bitmap behaves as an
// empty set.
func New(n int) *Bitmap {
	if n <= 0 {
		return &Bitmap{}
	}
	return &Bitmap{
		data: make([]uint64, (n+63)/64),
		n:    n,
	}
}

// Len returns the capacity the bitmap was created with.
func (b *Bitmap) Len() int { return b.n }

// Add sets the bit corresponding to id. Out-of-range ids are ignored.
func (b *Bitmap) Add(id int) {
	if id < 0 || id >= b.n {
		return
	}
	b.data[id/64] |= 1 << uint(id%64)
}

// Has reports whether the bit corresponding to id is set.
// Out-of-range ids always return false.
func (b *Bitmap) Has(id int) bool {
	if id < 0 || id >= b.n {
		return false
	}
	return b.data[id/64]&(1<<uint(id%64)) != 0
}

// Count returns the number of set bits.
func (b *Bitmap) Count() int {
	c := 0
	for _, w := range b.data {
		c += bits.OnesCount64(w)
	}
	return c
}
