// Package rules configures the voting rules built on the positional scoring
// engine, plus Random Dictator, which bypasses scoring.
package rules

import (
	"fmt"

	"github.com/okian/consensus/internal/domain/profile"
	"github.com/okian/consensus/internal/domain/ranking"
	"github.com/okian/consensus/internal/domain/scoring"
)

// Canonical rule names.
const (
	RulePlurality      = "plurality"
	RuleBorda          = "borda"
	RulePositional     = "positional"
	RuleRandomDictator = "random_dictator"
)

// Outcome is the aggregate ranking a rule produced for a profile.
type Outcome[C profile.Candidate] struct {
	Rule    string
	Ranking []C
	// Scores is aligned with Ranking for scoring rules and nil otherwise.
	Scores []float64
	// Dictator is the index of the adopted ballot, or -1 for scoring rules.
	Dictator int
}

// Method is a configured voting rule.
type Method[C profile.Candidate] interface {
	Name() string
	// Apply audits p and computes its aggregate ranking. Apply never
	// returns a partial outcome.
	Apply(p profile.Profile[C]) (Outcome[C], error)
}

type positional[C profile.Candidate, W ranking.Number] struct {
	name    string
	weights func(m int) []W
}

func (r positional[C, W]) Name() string { return r.name }

func (r positional[C, W]) Apply(p profile.Profile[C]) (Outcome[C], error) {
	t, err := scoring.Aggregate(p, r.weights(p.Candidates()))
	if err != nil {
		return Outcome[C]{}, fmt.Errorf("%s: %w", r.name, err)
	}
	scores := make([]float64, len(t.Scores))
	for i, s := range t.Scores {
		scores[i] = float64(s)
	}
	return Outcome[C]{Rule: r.name, Ranking: t.Ranking, Scores: scores, Dictator: -1}, nil
}

// NewPlurality returns the rule that counts first preferences only.
func NewPlurality[C profile.Candidate]() Method[C] {
	return positional[C, int]{name: RulePlurality, weights: scoring.PluralityWeights}
}

// NewBorda returns the rule that scores positions M, M-1, ..., 1.
func NewBorda[C profile.Candidate]() Method[C] {
	return positional[C, int]{name: RuleBorda, weights: scoring.BordaWeights}
}

// NewPositional returns a scoring rule with a fixed weight vector. Profiles
// whose ballot length differs from len(weights) are rejected.
func NewPositional[C profile.Candidate, W ranking.Number](weights []W) Method[C] {
	w := append([]W(nil), weights...)
	return positional[C, W]{name: RulePositional, weights: func(int) []W { return w }}
}

type randomDictator[C profile.Candidate] struct {
	src RandSource
}

// NewRandomDictator returns the rule that adopts one uniformly drawn ballot.
// A nil src uses DefaultSource.
func NewRandomDictator[C profile.Candidate](src RandSource) Method[C] {
	if src == nil {
		src = DefaultSource
	}
	return randomDictator[C]{src: src}
}

func (r randomDictator[C]) Name() string { return RuleRandomDictator }

func (r randomDictator[C]) Apply(p profile.Profile[C]) (Outcome[C], error) {
	if err := profile.Audit(p); err != nil {
		return Outcome[C]{}, fmt.Errorf("%s: %w", RuleRandomDictator, err)
	}
	k := r.src.IntN(len(p))
	if k < 0 || k >= len(p) {
		return Outcome[C]{}, fmt.Errorf("%s: drew %d of %d ballots: %w", RuleRandomDictator, k, len(p), ErrDrawOutOfRange)
	}
	return Outcome[C]{Rule: RuleRandomDictator, Ranking: p[k].Clone(), Dictator: k}, nil
}

// Plurality ranks p by first-preference counts.
func Plurality[C profile.Candidate](p profile.Profile[C]) ([]C, error) {
	t, err := scoring.Aggregate(p, scoring.PluralityWeights(p.Candidates()))
	return t.Ranking, err
}

// Borda ranks p by Borda count.
func Borda[C profile.Candidate](p profile.Profile[C]) ([]C, error) {
	t, err := scoring.Aggregate(p, scoring.BordaWeights(p.Candidates()))
	return t.Ranking, err
}

// RandomDictator returns a copy of one ballot of p drawn uniformly from src.
func RandomDictator[C profile.Candidate](p profile.Profile[C], src RandSource) ([]C, error) {
	o, err := NewRandomDictator[C](src).Apply(p)
	return o.Ranking, err
}

// PluralityIndexed is Plurality for integer-keyed profiles; ties go to the
// lowest candidate index.
func PluralityIndexed(p profile.Profile[int]) ([]int, error) {
	t, err := scoring.AggregateIndexed(p, scoring.PluralityWeights(p.Candidates()))
	return t.Ranking, err
}

// BordaIndexed is Borda for integer-keyed profiles; ties go to the lowest
// candidate index.
func BordaIndexed(p profile.Profile[int]) ([]int, error) {
	t, err := scoring.AggregateIndexed(p, scoring.BordaWeights(p.Candidates()))
	return t.Ranking, err
}
