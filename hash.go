package cset

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"
)

// hashMask keeps a hash non-negative in a 31-bit space; hash 0 is reserved
// to mark an arena slot as empty or freed (spec: "Normalized hash").
const hashMask = 0x7fffffff

// zeroHashSentinel replaces a normalized hash that would otherwise be 0.
const zeroHashSentinel = 0x7fffffff

// Hasher supplies the two capabilities the set requires of an element
// type: a stable hash and a total equality predicate. Equal elements must
// hash equally. A Hasher is typically a zero-size stateless type, so
// parameterizing [Set] over one costs nothing per instance.
type Hasher[E any] interface {
	Hash(e E) uint32
	Equal(a, b E) bool
}

// normalize derives the arena-internal hash from a raw user hash: mask to
// the low 31 bits, then remap 0 to a fixed non-zero sentinel.
func normalize(h uint32) uint32 {
	h &= hashMask
	if h == 0 {
		return zeroHashSentinel
	}
	return h
}

// StringHasher hashes strings with xxh3, folding its 64-bit digest down to
// 32 bits by taking the upper half, which mixes better than the low bits
// for this hash family.
type StringHasher struct{}

func (StringHasher) Hash(s string) uint32   { return uint32(xxh3.HashString(s) >> 32) }
func (StringHasher) Equal(a, b string) bool { return a == b }

// BytesHasher hashes byte slices with xxh3.
type BytesHasher struct{}

func (BytesHasher) Hash(b []byte) uint32   { return uint32(xxh3.Hash(b) >> 32) }
func (BytesHasher) Equal(a, b []byte) bool { return string(a) == string(b) }

// IntHasher hashes machine ints with xxhash, an independently sourced hash
// family from StringHasher/BytesHasher's xxh3.
type IntHasher struct{}

func (IntHasher) Hash(i int) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(i))
	return uint32(xxhash.Sum64(buf[:]) >> 32)
}
func (IntHasher) Equal(a, b int) bool { return a == b }

// Int64Hasher hashes int64 keys with xxhash.
type Int64Hasher struct{}

func (Int64Hasher) Hash(i int64) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(i))
	return uint32(xxhash.Sum64(buf[:]) >> 32)
}
func (Int64Hasher) Equal(a, b int64) bool { return a == b }

// Uint64Hasher hashes uint64 keys with xxhash.
type Uint64Hasher struct{}

func (Uint64Hasher) Hash(i uint64) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], i)
	return uint32(xxhash.Sum64(buf[:]) >> 32)
}
func (Uint64Hasher) Equal(a, b uint64) bool { return a == b }
