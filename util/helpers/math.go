// Package helpers holds small generic utilities shared across the storage
// and indexing packages.
package helpers

import "golang.org/x/exp/constraints"

func Min[T constraints.Ordered](numbers ...T) T {
	var min T = numbers[0]
	for _, n := range numbers {
		if n < min {
			min = n
		}
	}
	return min
}

func Max[T constraints.Ordered](numbers ...T) T {
	var max T = numbers[0]
	for _, n := range numbers {
		if n > max {
			max = n
		}
	}
	return max
}

// CeilDiv returns ceil(a/b) for positive integers, used to derive a node's
// min_size from its max_size.
func CeilDiv[T constraints.Integer](a, b T) T {
	if a == 0 {
		return 0
	}
	return (a + b - 1) / b
}
