package rules_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/okian/consensus/internal/domain/profile"
	"github.com/okian/consensus/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

// fixedSource always draws k.
type fixedSource struct{ k int }

func (f fixedSource) IntN(int) int { return f.k }

func pluralityProfile() profile.Profile[int] {
	return profile.Profile[int]{
		{0, 1, 2, 3},
		{0, 1, 2, 3},
		{0, 1, 2, 3},
		{1, 0, 2, 3},
		{1, 0, 2, 3},
		{2, 1, 0, 3},
	}
}

func bordaProfile() profile.Profile[int] {
	return profile.Profile[int]{
		{3, 1, 2, 0},
		{0, 1, 2, 3},
		{0, 1, 2, 3},
		{3, 0, 1, 2},
	}
}

func TestEntryPoints(t *testing.T) {
	Convey("Given the rule entry points", t, func() {
		Convey("When running plurality", func() {
			got, err := rules.Plurality(pluralityProfile())

			Convey("Then first preferences decide the order", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []int{0, 1, 2, 3})
			})
		})

		Convey("When running borda", func() {
			got, err := rules.Borda(bordaProfile())

			Convey("Then summed position scores decide the order", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []int{0, 1, 3, 2})
			})
		})

		Convey("When running the indexed variants", func() {
			plural, err := rules.PluralityIndexed(pluralityProfile())
			So(err, ShouldBeNil)
			borda, err := rules.BordaIndexed(bordaProfile())
			So(err, ShouldBeNil)

			Convey("Then they agree with the generic rules on tie-free input", func() {
				So(plural, ShouldResemble, []int{0, 1, 2, 3})
				So(borda, ShouldResemble, []int{0, 1, 3, 2})
			})
		})

		Convey("When the profile is malformed", func() {
			bad := profile.Profile[int]{{3, 1, 2, 57}, {0, 1, 2, 3}, {0, 1, 2, 3}}
			_, pErr := rules.Plurality(bad)
			_, bErr := rules.Borda(bad)
			_, dErr := rules.RandomDictator(bad, fixedSource{k: 0})

			Convey("Then every rule refuses it", func() {
				So(errors.Is(pErr, profile.ErrInvalidProfile), ShouldBeTrue)
				So(errors.Is(bErr, profile.ErrInvalidProfile), ShouldBeTrue)
				So(errors.Is(dErr, profile.ErrInvalidProfile), ShouldBeTrue)
			})
		})
	})
}

func TestRandomDictator(t *testing.T) {
	Convey("Given a profile of distinct ballots", t, func() {
		p := profile.Profile[string]{
			{"a", "b", "c"},
			{"b", "c", "a"},
			{"c", "a", "b"},
		}

		Convey("When the source draws index 1", func() {
			got, err := rules.RandomDictator(p, fixedSource{k: 1})

			Convey("Then ballot 1 is returned verbatim", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []string{"b", "c", "a"})
			})

			Convey("And the result does not alias the profile", func() {
				got[0] = "z"
				So(p[1][0], ShouldEqual, "b")
			})
		})

		Convey("When drawing many times from the default source", func() {
			counts := make([]int, len(p))
			for i := 0; i < 600; i++ {
				got, err := rules.RandomDictator(p, nil)
				So(err, ShouldBeNil)
				k := slices.IndexFunc(p, func(b profile.Ballot[string]) bool { return slices.Equal(b, got) })
				So(k, ShouldBeGreaterThanOrEqualTo, 0)
				counts[k]++
			}

			Convey("Then every ballot is eventually chosen", func() {
				for _, c := range counts {
					So(c, ShouldBeGreaterThan, 0)
				}
			})
		})

		Convey("When a seeded source is replayed", func() {
			first := rules.NewRandomDictator[string](rules.NewLockedSource(99))
			second := rules.NewRandomDictator[string](rules.NewLockedSource(99))

			Convey("Then both draw the same sequence", func() {
				for i := 0; i < 20; i++ {
					a, err := first.Apply(p)
					So(err, ShouldBeNil)
					b, err := second.Apply(p)
					So(err, ShouldBeNil)
					So(a.Dictator, ShouldEqual, b.Dictator)
					So(a.Ranking, ShouldResemble, b.Ranking)
				}
			})
		})

		Convey("When a broken source draws out of range", func() {
			_, err := rules.RandomDictator(p, fixedSource{k: 3})

			Convey("Then the draw is rejected", func() {
				So(errors.Is(err, rules.ErrDrawOutOfRange), ShouldBeTrue)
			})
		})

		Convey("When the profile is empty", func() {
			_, err := rules.RandomDictator(profile.Profile[string]{}, fixedSource{})

			Convey("Then it fails with ErrEmptyProfile", func() {
				So(errors.Is(err, profile.ErrEmptyProfile), ShouldBeTrue)
			})
		})
	})
}

func TestMethods(t *testing.T) {
	Convey("Given configured methods", t, func() {
		p := bordaProfile()

		Convey("When applying borda", func() {
			out, err := rules.NewBorda[int]().Apply(p)

			Convey("Then scores are aligned with the ranking", func() {
				So(err, ShouldBeNil)
				So(out.Rule, ShouldEqual, rules.RuleBorda)
				So(out.Ranking, ShouldResemble, []int{0, 1, 3, 2})
				So(out.Scores, ShouldResemble, []float64{12, 11, 10, 7})
				So(out.Dictator, ShouldEqual, -1)
			})
		})

		Convey("When applying a positional rule with explicit weights", func() {
			out, err := rules.NewPositional[int]([]int{4, 3, 2, 1}).Apply(p)

			Convey("Then it matches borda", func() {
				So(err, ShouldBeNil)
				So(out.Rule, ShouldEqual, rules.RulePositional)
				So(out.Ranking, ShouldResemble, []int{0, 1, 3, 2})
			})
		})

		Convey("When the positional weights are too short", func() {
			_, err := rules.NewPositional[int]([]float64{1, 0}).Apply(p)

			Convey("Then it fails with an invalid weights error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "positional")
			})
		})

		Convey("When applying the random dictator method", func() {
			out, err := rules.NewRandomDictator[int](fixedSource{k: 3}).Apply(p)

			Convey("Then the outcome names the dictator", func() {
				So(err, ShouldBeNil)
				So(out.Dictator, ShouldEqual, 3)
				So(out.Ranking, ShouldResemble, []int{3, 0, 1, 2})
				So(out.Scores, ShouldBeNil)
			})
		})
	})
}
