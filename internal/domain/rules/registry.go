package rules

import (
	"maps"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/okian/consensus/internal/domain/profile"
	"golang.org/x/text/cases"
)

// maxSuggestDistance bounds how far a misspelt name may be from a registered
// one before no suggestion is offered.
const maxSuggestDistance = 3

// Info describes a registered rule.
type Info struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Deterministic bool   `json:"deterministic"`
	Weighted      bool   `json:"weighted"`
}

var registry = []Info{ //nolint:gochecknoglobals // read-only table
	{Name: RulePlurality, Description: "Counts first preferences only (weights 1, 0, ..., 0).", Deterministic: true},
	{Name: RuleBorda, Description: "Scores ballot positions M, M-1, ..., 1.", Deterministic: true},
	{Name: RulePositional, Description: "Scores ballot positions with a caller-supplied weight vector.", Deterministic: true, Weighted: true},
	{Name: RuleRandomDictator, Description: "Adopts one uniformly drawn ballot verbatim.", Deterministic: false},
}

var aliases = map[string]string{ //nolint:gochecknoglobals // read-only table
	"fptp":         RulePlurality,
	"borda_count":  RuleBorda,
	"scoring":      RulePositional,
	"dictator":     RuleRandomDictator,
	"dictatorship": RuleRandomDictator,
}

// Rules returns the registered rules in a stable order.
func Rules() []Info {
	out := make([]Info, len(registry))
	copy(out, registry)
	return out
}

// Canonical resolves name, ignoring case, surrounding space and the choice
// of '-', '_' or ' ' as separator, to a registered rule name.
func Canonical(name string) (string, error) {
	key := normalize(name)
	for _, r := range registry {
		if r.Name == key {
			return r.Name, nil
		}
	}
	if canon, ok := aliases[key]; ok {
		return canon, nil
	}
	return "", &UnknownRuleError{Name: name, Suggestion: suggest(key)}
}

// Lookup returns the Info for name.
func Lookup(name string) (Info, error) {
	canon, err := Canonical(name)
	if err != nil {
		return Info{}, err
	}
	for _, r := range registry {
		if r.Name == canon {
			return r, nil
		}
	}
	return Info{}, &UnknownRuleError{Name: name}
}

// Spec selects and configures a rule by name.
type Spec struct {
	Name    string
	Weights []float64
}

// New builds the Method described by spec. src is only used by randomized
// rules and may be nil.
func New[C profile.Candidate](spec Spec, src RandSource) (Method[C], error) {
	info, err := Lookup(spec.Name)
	if err != nil {
		return nil, err
	}
	switch {
	case info.Weighted && len(spec.Weights) == 0:
		return nil, ErrMissingWeights
	case !info.Weighted && len(spec.Weights) > 0:
		return nil, ErrUnexpectedWeights
	}

	switch info.Name {
	case RulePlurality:
		return NewPlurality[C](), nil
	case RuleBorda:
		return NewBorda[C](), nil
	case RulePositional:
		return NewPositional[C](spec.Weights), nil
	default:
		return NewRandomDictator[C](src), nil
	}
}

func normalize(name string) string {
	s := cases.Fold().String(strings.TrimSpace(name))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

func suggest(key string) string {
	best, bestDist := "", maxSuggestDistance+1
	consider := func(candidate, canon string) {
		if d := levenshtein.ComputeDistance(key, candidate); d < bestDist {
			best, bestDist = canon, d
		}
	}
	for _, r := range registry {
		consider(r.Name, r.Name)
	}
	for _, alias := range slices.Sorted(maps.Keys(aliases)) {
		consider(alias, aliases[alias])
	}
	return best
}
