// Package ranking turns score vectors into total orders of indices.
package ranking

// Number is any integer or floating-point score type.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// greater reports whether a outranks b. NaN outranks nothing and is
// outranked by every number, which keeps Rank total on float input.
func greater[N Number](a, b N) bool {
	if a != a { // NaN
		return false
	}
	if b != b {
		return true
	}
	return a > b
}

// Max returns the largest score, or the zero value for an empty slice.
func Max[S ~[]N, N Number](scores S) N {
	var best N
	for i, s := range scores {
		if i == 0 || greater(s, best) {
			best = s
		}
	}
	return best
}

// Argmax returns every index holding the maximum score, in ascending order.
// It returns nil for an empty slice.
func Argmax[S ~[]N, N Number](scores S) []int {
	if len(scores) == 0 {
		return nil
	}
	best := Max(scores)
	var idx []int
	for i, s := range scores {
		if !greater(best, s) && !greater(s, best) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Rank orders indices best-to-worst by descending score. It repeatedly takes
// the first index achieving the maximum among the remaining positions, so
// ties always go to the lowest original index and equal scores yield the
// identity order. The result is a permutation of 0..len(scores)-1.
func Rank[S ~[]N, N Number](scores S) []int {
	ranked := make([]int, 0, len(scores))
	taken := make([]bool, len(scores))
	for range scores {
		pick := -1
		for i, s := range scores {
			if taken[i] {
				continue
			}
			if pick < 0 || greater(s, scores[pick]) {
				pick = i
			}
		}
		taken[pick] = true
		ranked = append(ranked, pick)
	}
	return ranked
}
