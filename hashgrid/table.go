package hashgrid

import "math/bits"

// InvalidKey is the bucket key of padding slots. It sorts after every
// real key.
const InvalidKey uint32 = 0xFFFFFFFF

// EmptyOffset marks a bucket with no entries.
const EmptyOffset uint32 = 0xFFFFFFFF

// Entry is one lookup table slot.
type Entry struct {
	Key     uint32
	Payload PackedKey
}

// padding is the entry written to slots [N, T).
var padding = Entry{Key: InvalidKey, Payload: EncodeIndex(NoParticle)}

// sortKey orders entries by (key, class, index).
func (e Entry) sortKey() uint64 {
	return uint64(e.Key)<<(IndexBits+ClassBits) |
		uint64(e.Payload.Class())<<IndexBits |
		uint64(e.Payload.Index())
}

// Less reports whether e sorts before o.
func (e Entry) Less(o Entry) bool {
	return e.sortKey() < o.sortKey()
}

// TableSize returns the smallest power of two >= n, and 1 for n <= 1.
func TableSize(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
