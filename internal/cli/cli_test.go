package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	service "github.com/okian/consensus/internal/app"
	"github.com/okian/consensus/internal/domain/rules"
	"github.com/okian/consensus/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

const bordaYAML = `
rule: borda
ballots:
  - [d, b, c, a]
  - [a, b, c, d]
  - [a, b, c, d]
  - [d, a, b, c]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseFlags(t *testing.T) {
	Convey("Given command lines", t, func() {
		var stderr bytes.Buffer

		Convey("When rules, weights and a profile are given", func() {
			cfg, err := ParseFlags([]string{"-profile", "p.yaml", "-rule", "Borda, fptp", "-weights", "2, 1,0"}, &stderr)

			Convey("Then rules are canonicalized and weights parsed", func() {
				So(err, ShouldBeNil)
				So(cfg.Rules, ShouldResemble, []string{rules.RuleBorda, rules.RulePlurality})
				So(cfg.Weights, ShouldResemble, []float64{2, 1, 0})
				So(cfg.Format, ShouldEqual, DefaultFormat)
			})
		})

		Convey("When a rule is misspelt", func() {
			_, err := ParseFlags([]string{"-profile", "p.yaml", "-rule", "bordaa"}, &stderr)

			Convey("Then the usage error carries a suggestion", func() {
				So(errors.Is(err, ErrUsage), ShouldBeTrue)
				So(errors.Is(err, rules.ErrUnknownRule), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "did you mean")
			})
		})

		Convey("When no profile source is given", func() {
			_, err := ParseFlags(nil, &stderr)
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})

		Convey("When both profile sources are given", func() {
			_, err := ParseFlags([]string{"-profile", "p.yaml", "-random-voters", "3", "-random-candidates", "2"}, &stderr)
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})

		Convey("When a weight is not a number", func() {
			_, err := ParseFlags([]string{"-profile", "p.yaml", "-weights", "1,x"}, &stderr)
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})

		Convey("When indexed mode is combined with a remote url", func() {
			_, err := ParseFlags([]string{"-profile", "p.yaml", "-indexed", "-url", "http://x"}, &stderr)
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})
	})
}

func TestParseProfile(t *testing.T) {
	Convey("Given profile documents", t, func() {
		Convey("When the document is a YAML mapping", func() {
			doc, err := ParseProfile([]byte(bordaYAML))

			Convey("Then rule and ballots are read", func() {
				So(err, ShouldBeNil)
				So(doc.Rule, ShouldEqual, "borda")
				So(len(doc.Ballots), ShouldEqual, 4)
				So(doc.Ballots[3], ShouldResemble, []string{"d", "a", "b", "c"})
			})
		})

		Convey("When the document is a bare JSON list", func() {
			doc, err := ParseProfile([]byte(`[["x","y"],["y","x"]]`))

			Convey("Then the ballots are read", func() {
				So(err, ShouldBeNil)
				So(doc.Ballots, ShouldResemble, [][]string{{"x", "y"}, {"y", "x"}})
			})
		})

		Convey("When the document is a JSON object with weights", func() {
			doc, err := ParseProfile([]byte(`{"weights":[1,0],"ballots":[["x","y"]]}`))
			So(err, ShouldBeNil)
			So(doc.Weights, ShouldResemble, []float64{1, 0})
		})

		Convey("When the document is a scalar or empty", func() {
			_, err1 := ParseProfile([]byte(`hello`))
			_, err2 := ParseProfile([]byte(``))
			So(errors.Is(err1, ErrProfile), ShouldBeTrue)
			So(errors.Is(err2, ErrProfile), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
			So(errors.Is(err, ErrProfile), ShouldBeTrue)
		})
	})
}

func TestGenerateProfile(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		ctx := context.Background()
		a := GenerateProfile(ctx, 20, 4, 7)
		b := GenerateProfile(ctx, 20, 4, 7)

		Convey("Then the profile is reproducible and well formed", func() {
			So(a.Ballots, ShouldResemble, b.Ballots)
			So(len(a.Ballots), ShouldEqual, 20)
			for _, ballot := range a.Ballots {
				So(len(ballot), ShouldEqual, 4)
				So(ballot, ShouldContain, "c0")
				So(ballot, ShouldContain, "c3")
			}
		})

		Convey("And it round-trips through a saved file", func() {
			path := filepath.Join(t.TempDir(), "out", "profile.yaml")
			So(SaveProfile(ctx, path, a), ShouldBeNil)
			loaded, err := LoadProfile(path)
			So(err, ShouldBeNil)
			So(loaded.Ballots, ShouldResemble, a.Ballots)
		})
	})
}

func TestIndexProfile(t *testing.T) {
	Convey("Given a string profile", t, func() {
		ints, names := indexProfile([][]string{{"b", "a", "c"}, {"a", "c", "b"}, {"z", "a", "b"}})

		Convey("Then candidates are numbered in first-ballot order", func() {
			So(names, ShouldResemble, []string{"b", "a", "c"})
			So(ints[1], ShouldResemble, []int{1, 2, 0})
		})

		Convey("And unknown candidates fall out of range", func() {
			So(ints[2][0], ShouldEqual, 3)
		})
	})
}

func TestRunLocal(t *testing.T) {
	Convey("Given the borda profile on disk", t, func() {
		ctx := context.Background()
		path := writeFile(t, "ballots.yaml", bordaYAML)
		var out bytes.Buffer

		Convey("When every rule is run as JSON", func() {
			cfg := &Config{ProfileFile: path, Rules: []string{DefaultRule}, Workers: 2, Format: "json", Seed: 5}
			err := Run(ctx, cfg, &out)

			var decoded struct{ Results []Result }
			_ = json.Unmarshal(out.Bytes(), &decoded)

			Convey("Then each non-weighted rule reports a ranking", func() {
				So(err, ShouldBeNil)
				So(len(decoded.Results), ShouldEqual, 3)
				So(decoded.Results[0].Rule, ShouldEqual, rules.RulePlurality)
				So(decoded.Results[0].Ranking[:2], ShouldContain, "a")
				So(decoded.Results[1].Rule, ShouldEqual, rules.RuleBorda)
				So(decoded.Results[1].Ranking, ShouldResemble, []string{"a", "b", "d", "c"})
				So(decoded.Results[1].Scores, ShouldResemble, []float64{12, 11, 10, 7})
				So(decoded.Results[2].Dictator, ShouldNotBeNil)
			})
		})

		Convey("When no rule is named", func() {
			err := Run(ctx, &Config{ProfileFile: path, Workers: 1, Format: "text"}, &out)

			Convey("Then the profile's own rule is used", func() {
				So(err, ShouldBeNil)
				So(out.String(), ShouldContainSubstring, "RULE")
				So(out.String(), ShouldContainSubstring, "a > b > d > c")
				So(out.String(), ShouldNotContainSubstring, "plurality")
			})
		})

		Convey("When weights are given with all rules", func() {
			cfg := &Config{ProfileFile: path, Rules: []string{DefaultRule}, Weights: []float64{1, 1, 0, 0}, Workers: 4, Format: "json"}
			err := Run(ctx, cfg, &out)

			var decoded struct{ Results []Result }
			_ = json.Unmarshal(out.Bytes(), &decoded)

			Convey("Then positional runs too", func() {
				So(err, ShouldBeNil)
				So(len(decoded.Results), ShouldEqual, 4)
				So(decoded.Results[2].Rule, ShouldEqual, rules.RulePositional)
				So(decoded.Results[2].Ranking[0], ShouldEqual, "b")
			})
		})

		Convey("When indexed mode runs every rule", func() {
			cfg := &Config{ProfileFile: path, Rules: []string{DefaultRule}, Indexed: true, Workers: 2, Format: "json"}
			err := Run(ctx, cfg, &out)

			var decoded struct{ Results []Result }
			_ = json.Unmarshal(out.Bytes(), &decoded)

			Convey("Then scoring rules use indexed tie-breaks and the dictator runs generically", func() {
				So(err, ShouldBeNil)
				So(len(decoded.Results), ShouldEqual, 3)
				So(decoded.Results[1].Ranking, ShouldResemble, []string{"a", "b", "d", "c"})
				So(decoded.Results[2].Rule, ShouldEqual, rules.RuleRandomDictator)
				So(decoded.Results[2].Error, ShouldBeEmpty)
				So(decoded.Results[2].Dictator, ShouldNotBeNil)
				So(len(decoded.Results[2].Ranking), ShouldEqual, 4)
			})
		})

		Convey("When indexed mode runs a positional rule", func() {
			cfg := &Config{ProfileFile: path, Rules: []string{rules.RulePositional}, Weights: []float64{1, 1, 0, 0}, Indexed: true, Workers: 1, Format: "json"}
			err := Run(ctx, cfg, &out)

			var decoded struct{ Results []Result }
			_ = json.Unmarshal(out.Bytes(), &decoded)

			Convey("Then the tie between a and b goes to the lower index", func() {
				So(err, ShouldBeNil)
				So(decoded.Results[0].Ranking, ShouldResemble, []string{"b", "a", "d", "c"})
				So(decoded.Results[0].Scores, ShouldResemble, []float64{3, 3, 2, 0})
			})
		})

		Convey("When indexed mode runs on a generated profile with default rules", func() {
			cfg, perr := ParseFlags([]string{"-random-voters", "5", "-random-candidates", "3", "-indexed", "-seed", "3", "-format", "json"}, io.Discard)
			So(perr, ShouldBeNil)
			err := Run(ctx, cfg, &out)

			var decoded struct{ Results []Result }
			_ = json.Unmarshal(out.Bytes(), &decoded)

			Convey("Then every rule succeeds", func() {
				So(err, ShouldBeNil)
				So(len(decoded.Results), ShouldEqual, 3)
				for _, r := range decoded.Results {
					So(r.Error, ShouldBeEmpty)
				}
			})
		})

		Convey("When the profile is malformed", func() {
			bad := writeFile(t, "bad.yaml", "[[a, b], [a, c]]")
			err := Run(ctx, &Config{ProfileFile: bad, Rules: []string{rules.RuleBorda}, Workers: 1, Format: "text"}, &out)

			Convey("Then the failure is reported and returned", func() {
				So(err, ShouldNotBeNil)
				So(out.String(), ShouldContainSubstring, "error:")
			})
		})

		Convey("When the profile is generated and seeded", func() {
			cfg := &Config{RandomVoters: 30, RandomCandidates: 3, Seed: 11, Rules: []string{rules.RuleRandomDictator}, Workers: 1, Format: "json"}
			var first, second bytes.Buffer
			So(Run(ctx, cfg, &first), ShouldBeNil)
			So(Run(ctx, cfg, &second), ShouldBeNil)

			var a, b struct{ Results []Result }
			_ = json.Unmarshal(first.Bytes(), &a)
			_ = json.Unmarshal(second.Bytes(), &b)

			Convey("Then both runs draw the same dictator", func() {
				So(*a.Results[0].Dictator, ShouldEqual, *b.Results[0].Dictator)
				So(a.Results[0].Ranking, ShouldResemble, b.Results[0].Ranking)
			})
		})
	})
}

func TestRunRemote(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := newTestMux(svc)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		path := writeFile(t, "ballots.yaml", bordaYAML)
		var out bytes.Buffer

		Convey("When the profile is submitted remotely", func() {
			cfg := &Config{ProfileFile: path, BaseURL: srv.URL, Rules: []string{rules.RuleBorda, rules.RulePlurality}, Workers: 2, Format: "json", Timeout: defaultTestTimeout}
			err := Run(ctx, cfg, &out)

			var decoded struct{ Results []Result }
			_ = json.Unmarshal(out.Bytes(), &decoded)

			Convey("Then the service's rankings are printed", func() {
				So(err, ShouldBeNil)
				So(decoded.Results[0].Ranking, ShouldResemble, []string{"a", "b", "d", "c"})
				So(decoded.Results[0].Scores, ShouldResemble, []float64{12, 11, 10, 7})
				So(decoded.Results[1].Rule, ShouldEqual, rules.RulePlurality)
				So(len(decoded.Results[1].Ranking), ShouldEqual, 4)
			})
		})

		Convey("When the service rejects the profile", func() {
			bad := writeFile(t, "bad.yaml", "[[a, a]]")
			cfg := &Config{ProfileFile: bad, BaseURL: srv.URL, Rules: []string{rules.RuleBorda}, Workers: 1, Format: "text", Timeout: defaultTestTimeout}
			err := Run(ctx, cfg, &out)

			Convey("Then the remote error is surfaced", func() {
				So(err, ShouldNotBeNil)
				So(strings.Contains(out.String(), "duplicate_candidate"), ShouldBeTrue)
			})
		})

		Convey("When the service is unreachable", func() {
			cfg := &Config{ProfileFile: path, BaseURL: "http://127.0.0.1:1", Workers: 1, Format: "text", Timeout: defaultTestTimeout}
			err := Run(ctx, cfg, &out)
			So(errors.Is(err, ErrRemote), ShouldBeTrue)
		})
	})
}
