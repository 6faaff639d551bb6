package bptree

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/exp/constraints"
)

// Comparator orders two fixed-width keys. Compare must agree with the
// byte layout Node stores keys in: whatever a Comparator considers equal,
// the node codec must also be able to overwrite in place.
type Comparator interface {
	Compare(a, b []byte) int
}

// ByteComparator orders keys lexicographically, byte by byte. Suitable
// for opaque or variable-content fixed-width keys such as encoded
// strings.
type ByteComparator struct{}

func (ByteComparator) Compare(a, b []byte) int { return bytes.Compare(a, b) }

// IntComparator orders keys as big-endian fixed-width signed integers.
// Big-endian is used (rather than native byte order) so byte-lexical
// order matches numeric order for non-negative values, which keeps dump
// output and raw memcmp debugging sane; negative values, having the sign
// bit set, sort after all non-negative ones byte-wise.
type IntComparator[T constraints.Signed] struct{}

func (IntComparator[T]) Compare(a, b []byte) int {
	av := decodeInt[T](a)
	bv := decodeInt[T](b)
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

func decodeInt[T constraints.Signed](b []byte) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.BigEndian.Uint16(b)))
	case 4:
		return int64(int32(binary.BigEndian.Uint32(b)))
	default:
		return int64(binary.BigEndian.Uint64(b))
	}
}
