// Package scoring implements positional voting: every ballot position carries
// a fixed weight and candidates are ranked by the sum of the weights they
// collect.
package scoring

import (
	"github.com/okian/consensus/internal/domain/profile"
	"github.com/okian/consensus/internal/domain/ranking"
)

// Tally is the outcome of a positional aggregation. Scores[i] is the total
// collected by Ranking[i].
type Tally[C profile.Candidate, W ranking.Number] struct {
	Ranking []C
	Scores  []W
}

// Winner returns the top-ranked candidate. ok is false when nothing was ranked.
func (t Tally[C, W]) Winner() (c C, ok bool) {
	if len(t.Ranking) == 0 {
		return c, false
	}
	return t.Ranking[0], true
}

// PluralityWeights returns [1, 0, ..., 0] of length m.
func PluralityWeights(m int) []int {
	w := make([]int, m)
	if m > 0 {
		w[0] = 1
	}
	return w
}

// BordaWeights returns [m, m-1, ..., 1].
func BordaWeights(m int) []int {
	w := make([]int, m)
	for i := range w {
		w[i] = m - i
	}
	return w
}

// Aggregate audits p, then adds weights[i] to the candidate at position i of
// every ballot. Candidates are ranked by descending total; ties go to the
// candidate that entered the score map first, which is the order of the
// first ballot.
func Aggregate[C profile.Candidate, W ranking.Number](p profile.Profile[C], weights []W) (Tally[C, W], error) {
	if err := profile.Audit(p); err != nil {
		return Tally[C, W]{}, err
	}
	m := p.Candidates()
	if len(weights) != m {
		return Tally[C, W]{}, &InvalidWeightsError{Want: m, Got: len(weights)}
	}

	// order records insertion into the score map; slot maps a candidate to
	// its insertion index so totals can be ranked by position.
	order := make([]C, 0, m)
	slot := make(map[C]int, m)
	totals := make([]W, 0, m)
	for _, b := range p {
		for i, c := range b {
			k, ok := slot[c]
			if !ok {
				k = len(order)
				slot[c] = k
				order = append(order, c)
				totals = append(totals, 0)
			}
			totals[k] += weights[i]
		}
	}

	return collect(order, totals), nil
}

// AggregateIndexed is Aggregate for integer-keyed profiles whose candidates
// are 0..M-1. Totals are indexed by candidate, so ties go to the lowest
// candidate index rather than to first appearance.
func AggregateIndexed[W ranking.Number](p profile.Profile[int], weights []W) (Tally[int, W], error) {
	if err := profile.AuditIndexed(p); err != nil {
		return Tally[int, W]{}, err
	}
	m := p.Candidates()
	if len(weights) != m {
		return Tally[int, W]{}, &InvalidWeightsError{Want: m, Got: len(weights)}
	}

	totals := make([]W, m)
	for _, b := range p {
		for i, c := range b {
			totals[c] += weights[i]
		}
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	return collect(order, totals), nil
}

func collect[C profile.Candidate, W ranking.Number](order []C, totals []W) Tally[C, W] {
	idx := ranking.Rank(totals)
	t := Tally[C, W]{
		Ranking: make([]C, len(idx)),
		Scores:  make([]W, len(idx)),
	}
	for pos, k := range idx {
		t.Ranking[pos] = order[k]
		t.Scores[pos] = totals[k]
	}
	return t
}
