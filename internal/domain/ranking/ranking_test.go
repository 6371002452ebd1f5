package ranking

import (
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   []int
	}{
		{name: "empty", scores: []int{}, want: []int{}},
		{name: "single", scores: []int{7}, want: []int{0}},
		{name: "all equal keeps index order", scores: []int{5, 5, 5}, want: []int{0, 1, 2}},
		{name: "plurality counts", scores: []int{3, 2, 1, 0}, want: []int{0, 1, 2, 3}},
		{name: "descending from the back", scores: []int{0, 1, 2, 3}, want: []int{3, 2, 1, 0}},
		{name: "ties broken by lowest index", scores: []int{1, 4, 1, 4, 0}, want: []int{1, 3, 0, 2, 4}},
		{name: "negative scores", scores: []int{-3, -1, -2}, want: []int{1, 2, 0}},
		{name: "minimum int is still ranked", scores: []int{math.MinInt, 0}, want: []int{1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rank(tt.scores))
		})
	}
}

func TestRankFloats(t *testing.T) {
	got := Rank([]float64{0.5, math.NaN(), 2.5, 0.5})
	assert.Equal(t, []int{2, 0, 3, 1}, got)
}

func TestRankIsPermutation(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 200; trial++ {
		n := r.IntN(20)
		scores := make([]int, n)
		for i := range scores {
			scores[i] = r.IntN(5)
		}

		ranked := Rank(scores)
		require.Len(t, ranked, n)

		sorted := append([]int(nil), ranked...)
		sort.Ints(sorted)
		for i, v := range sorted {
			require.Equal(t, i, v, "rank of %v is not a permutation: %v", scores, ranked)
		}

		for i := 1; i < len(ranked); i++ {
			prev, cur := scores[ranked[i-1]], scores[ranked[i]]
			require.GreaterOrEqual(t, prev, cur)
			if prev == cur {
				require.Less(t, ranked[i-1], ranked[i], "ties must keep index order")
			}
		}
	}
}

func TestMaxAndArgmax(t *testing.T) {
	assert.Equal(t, 9, Max([]int{3, 9, 1, 9}))
	assert.Equal(t, []int{1, 3}, Argmax([]int{3, 9, 1, 9}))

	assert.Equal(t, -1, Max([]int{-4, -1, -7}))
	assert.Equal(t, []int{1}, Argmax([]int{-4, -1, -7}))

	assert.Equal(t, 0, Max([]int{}))
	assert.Nil(t, Argmax([]int{}))

	assert.Equal(t, 2.0, Max([]float64{math.NaN(), 2, 1}))
	assert.Equal(t, []int{1}, Argmax([]float64{math.NaN(), 2, 1}))

	type score uint8
	assert.Equal(t, score(200), Max([]score{10, 200, 3}))
}
