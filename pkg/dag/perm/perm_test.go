package perm

import (
	"slices"
	"testing"
)

func TestAllCount(t *testing.T) {
	for n := 0; n <= 6; n++ {
		seen := make(map[string]bool)
		for p := range All(n) {
			seen[fmtPerm(p)] = true
		}
		if len(seen) != Factorial(n) {
			t.Errorf("All(%d) yielded %d distinct permutations, want %d", n, len(seen), Factorial(n))
		}
	}
}

func TestAllEarlyStop(t *testing.T) {
	count := 0
	for range All(5) {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestAllReusesSlice(t *testing.T) {
	var kept [][]int
	for p := range All(3) {
		kept = append(kept, slices.Clone(p))
	}
	if !slices.Equal(kept[0], []int{0, 1, 2}) {
		t.Errorf("first permutation = %v, want identity", kept[0])
	}
	if !slices.Equal(kept[len(kept)-1], []int{2, 1, 0}) {
		t.Errorf("last permutation = %v, want [2 1 0]", kept[len(kept)-1])
	}
}

func fmtPerm(p []int) string {
	b := make([]byte, len(p))
	for i, v := range p {
		b[i] = byte('0' + v)
	}
	return string(b)
}
