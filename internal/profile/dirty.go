package profile

import "math/bits"

// MaxCategories is the number of categories a single Profile can track.
const MaxCategories = 64

// DirtyMask holds one bit per category. Bit n belongs to the n-th descriptor returned by
// Profile.Categories.
type DirtyMask uint64

func (m DirtyMask) Has(bit int) bool {
	return m&(1<<uint(bit)) != 0
}

func (m DirtyMask) With(bit int) DirtyMask {
	return m | 1<<uint(bit)
}

func (m DirtyMask) Without(bit int) DirtyMask {
	return m &^ (1 << uint(bit))
}

// Any reports whether at least one bit is set.
func (m DirtyMask) Any() bool {
	return m != 0
}

// Bits returns the set bit positions in ascending order.
func (m DirtyMask) Bits() []int {
	out := make([]int, 0, bits.OnesCount64(uint64(m)))
	for v := uint64(m); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros64(v))
	}
	return out
}
