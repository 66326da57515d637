// Package perm enumerates permutations of small index sets.
//
// The layered layout uses it to search every arrangement of a narrow rank
// once the median sweeps have converged:
//
//	for p := range perm.All(len(rank)) {
//	    candidate := perm.Apply(rank, p)
//	    ...
//	}
package perm

import "iter"

// Factorial returns n!, or 1 for n <= 1.
func Factorial(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}

// All yields every permutation of [0, n) using Heap's algorithm, starting
// with the identity. The yielded slice is reused between iterations; clone
// it to keep it.
//
// n = 0 yields a single empty permutation.
func All(n int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		p := make([]int, n)
		for i := range p {
			p[i] = i
		}
		if !yield(p) {
			return
		}

		state := make([]int, n)
		for i := 0; i < n; {
			if state[i] >= i {
				state[i] = 0
				i++
				continue
			}
			if i%2 == 0 {
				p[0], p[i] = p[i], p[0]
			} else {
				p[state[i]], p[i] = p[i], p[state[i]]
			}
			if !yield(p) {
				return
			}
			state[i]++
			i = 0
		}
	}
}

// Apply returns items rearranged so that result[i] = items[p[i]].
func Apply[T any](items []T, p []int) []T {
	out := make([]T, len(p))
	for i, idx := range p {
		out[i] = items[idx]
	}
	return out
}
