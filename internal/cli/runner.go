package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/okian/consensus/internal/domain/profile"
	"github.com/okian/consensus/internal/domain/rules"
	"github.com/okian/consensus/internal/domain/scoring"
	"github.com/okian/consensus/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Run loads or generates the profile, tallies it under every selected rule
// and writes the results to w. Rule failures are reported in the output and
// joined into the returned error.
func Run(ctx context.Context, cfg *Config, w io.Writer) error {
	log := logger.Get().Named("cli")

	doc, err := obtainProfile(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.OutputFile != "" {
		if err := SaveProfile(ctx, cfg.OutputFile, doc); err != nil {
			log.Warn(ctx, "failed to save profile to file", logger.Error(err))
		}
	}

	weights := cfg.Weights
	if len(weights) == 0 {
		weights = doc.Weights
	}
	selected := selectRules(cfg.Rules, doc.Rule, len(weights) > 0)

	log.Info(ctx, "tallying profile",
		logger.Int("voters", len(doc.Ballots)),
		logger.Strings("rules", selected),
		logger.Bool("remote", cfg.BaseURL != ""),
		logger.Bool("indexed", cfg.Indexed))

	var tally func(ctx context.Context, rule string) Result
	if cfg.BaseURL != "" {
		client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("service health check failed: %w", err)
		}
		tally = func(ctx context.Context, rule string) Result {
			return tallyRemote(ctx, client, rule, ruleWeights(rule, weights), doc.Ballots)
		}
	} else {
		var src rules.RandSource
		if cfg.Seed != 0 {
			src = rules.NewLockedSource(cfg.Seed)
		}
		tally = func(_ context.Context, rule string) Result {
			return tallyLocal(rule, ruleWeights(rule, weights), doc.Ballots, src, cfg.Indexed)
		}
	}

	results := make([]Result, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.Workers))
	for i, rule := range selected {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("tally %s: %w", rule, err)
			}
			results[i] = tally(gctx, rule)
			if cfg.Verbose {
				log.Info(gctx, "rule finished", logger.String("rule", rule), logger.String("elapsed", results[i].Elapsed))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeResults(w, cfg.Format, results); err != nil {
		return err
	}

	var errs []error
	for _, r := range results {
		if r.Error != "" {
			errs = append(errs, fmt.Errorf("%s: %s", r.Rule, r.Error))
		}
	}
	return errors.Join(errs...)
}

func obtainProfile(ctx context.Context, cfg *Config) (*ProfileDoc, error) {
	if cfg.RandomVoters > 0 {
		return GenerateProfile(ctx, cfg.RandomVoters, cfg.RandomCandidates, cfg.Seed), nil
	}
	return LoadProfile(cfg.ProfileFile)
}

// selectRules expands "all", falling back to the profile's own rule when the
// command line names none. Positional needs weights, so "all" skips it
// unless some were given.
func selectRules(requested []string, fromDoc string, haveWeights bool) []string {
	if len(requested) == 0 && fromDoc != "" {
		if canon, err := rules.Canonical(fromDoc); err == nil {
			return []string{canon}
		}
		return []string{fromDoc}
	}
	if len(requested) == 0 || (len(requested) == 1 && requested[0] == DefaultRule) {
		out := make([]string, 0, len(rules.Rules()))
		for _, info := range rules.Rules() {
			if info.Weighted && !haveWeights {
				continue
			}
			out = append(out, info.Name)
		}
		return out
	}
	return requested
}

// ruleWeights passes weights only to rules that take them.
func ruleWeights(rule string, weights []float64) []float64 {
	info, err := rules.Lookup(rule)
	if err != nil || !info.Weighted {
		return nil
	}
	return weights
}

func tallyLocal(rule string, weights []float64, ballots [][]string, src rules.RandSource, indexed bool) Result {
	start := time.Now()
	res := Result{Rule: rule}

	var err error
	if indexed && hasIndexed(rule) {
		err = tallyIndexed(&res, rule, weights, ballots)
	} else {
		err = tallyGeneric(&res, rule, weights, ballots, src)
	}
	if err != nil {
		res.Error = err.Error()
	}
	res.Elapsed = time.Since(start).String()
	return res
}

// hasIndexed reports whether rule has an integer-keyed entry point. The
// random dictator returns a ballot verbatim, so it runs the generic path.
func hasIndexed(rule string) bool {
	switch rule {
	case rules.RulePlurality, rules.RuleBorda, rules.RulePositional:
		return true
	default:
		return false
	}
}

func tallyGeneric(res *Result, rule string, weights []float64, ballots [][]string, src rules.RandSource) error {
	p := make(profile.Profile[string], len(ballots))
	for i, b := range ballots {
		p[i] = profile.Ballot[string](b)
	}
	method, err := rules.New[string](rules.Spec{Name: rule, Weights: weights}, src)
	if err != nil {
		return err
	}
	out, err := method.Apply(p)
	if err != nil {
		return err
	}
	res.Rule = out.Rule
	res.Ranking = out.Ranking
	res.Scores = out.Scores
	if out.Dictator >= 0 {
		d := out.Dictator
		res.Dictator = &d
	}
	return nil
}

// tallyIndexed numbers candidates in first-ballot order and runs the
// integer-keyed variant, so ties go to the candidate listed first on
// ballot 0.
func tallyIndexed(res *Result, rule string, weights []float64, ballots [][]string) error {
	ints, names := indexProfile(ballots)
	p := make(profile.Profile[int], len(ints))
	for i, b := range ints {
		p[i] = profile.Ballot[int](b)
	}

	var (
		order []int
		err   error
	)
	switch rule {
	case rules.RulePlurality:
		order, err = rules.PluralityIndexed(p)
	case rules.RuleBorda:
		order, err = rules.BordaIndexed(p)
	case rules.RulePositional:
		if len(weights) == 0 {
			return fmt.Errorf("%s: %w", rule, rules.ErrMissingWeights)
		}
		var t scoring.Tally[int, float64]
		if t, err = scoring.AggregateIndexed(p, weights); err == nil {
			order, res.Scores = t.Ranking, t.Scores
		}
	default:
		return fmt.Errorf("%w: %s", ErrNoIndexed, rule)
	}
	if err != nil {
		return err
	}
	res.Ranking = make([]string, len(order))
	for i, k := range order {
		res.Ranking[i] = names[k]
	}
	return nil
}

func tallyRemote(ctx context.Context, client *HTTPClient, rule string, weights []float64, ballots [][]string) Result {
	start := time.Now()
	res := Result{Rule: rule}

	id, err := client.Submit(ctx, rule, weights, ballots)
	if err == nil {
		var rec *tallyResponse
		if rec, err = client.Await(ctx, id); err == nil {
			res.Rule = rec.Rule
			res.Ranking = rec.Ranking
			res.Dictator = rec.Dictator
			for _, s := range rec.Standings {
				if s.Score != nil {
					res.Scores = append(res.Scores, *s.Score)
				}
			}
			if rec.Status == statusFailed {
				err = fmt.Errorf("%w: %s", ErrRemote, rec.Error)
			}
		}
	}
	if err != nil {
		res.Error = err.Error()
	}
	res.Elapsed = time.Since(start).String()
	return res
}
