// Package cli implements consensus-cli: tally a ballot profile locally under
// one or more voting rules, or submit it to a running service.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/consensus/internal/domain/rules"
	"github.com/okian/consensus/pkg/logger"
)

// SetupLogging initializes the logger on stderr and, when logFile is set,
// mirrors it to that file. The returned func closes the file.
func SetupLogging(logFile string, verbose bool) (func(), error) {
	out := io.Writer(os.Stderr)
	closeFn := func() {}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, file)
		closeFn = func() { _ = file.Close() }
	}

	if err := logger.Init(logger.WithWriter(out)); err != nil {
		closeFn()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return closeFn, nil
}

// ParseFlags parses args (without the program name) into a Config.
func ParseFlags(args []string, stderr io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("consensus-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { ShowHelp(stderr) }

	cfg := &Config{}
	var ruleList, weightList string
	fs.StringVar(&cfg.ProfileFile, "profile", "", "YAML or JSON profile file")
	fs.StringVar(&ruleList, "rule", "", `comma-separated rules, or "all" (default: the profile's rule, else all)`)
	fs.StringVar(&weightList, "weights", "", "comma-separated positional weights")
	fs.BoolVar(&cfg.Indexed, "indexed", false, "use the integer-keyed plurality, borda and positional variants")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "seed for random dictator draws and generated profiles")
	fs.IntVar(&cfg.RandomVoters, "random-voters", 0, "generate a profile with this many voters")
	fs.IntVar(&cfg.RandomCandidates, "random-candidates", 0, "candidates in a generated profile")
	fs.StringVar(&cfg.BaseURL, "url", "", "submit to the service at this base URL instead of tallying locally")
	fs.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "HTTP timeout and remote wait budget")
	fs.IntVar(&cfg.Workers, "workers", DefaultWorkers, "rules evaluated concurrently")
	fs.StringVar(&cfg.Format, "format", DefaultFormat, `output format: "text" or "json"`)
	fs.StringVar(&cfg.OutputFile, "output", "", "write the tallied profile to this YAML file")
	fs.StringVar(&cfg.LogFile, "log", "", "mirror logs to this file")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}

	if err := cfg.setRules(ruleList); err != nil {
		return nil, err
	}
	if err := cfg.setWeights(weightList); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setRules(list string) error {
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			continue
		case strings.EqualFold(name, DefaultRule):
			c.Rules = append(c.Rules, DefaultRule)
		default:
			canon, err := rules.Canonical(name)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrUsage, err)
			}
			c.Rules = append(c.Rules, canon)
		}
	}
	return nil
}

func (c *Config) setWeights(list string) error {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	for _, f := range strings.Split(list, ",") {
		w, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return fmt.Errorf("%w: weight %q: %w", ErrUsage, f, err)
		}
		c.Weights = append(c.Weights, w)
	}
	return nil
}

func (c *Config) validate() error {
	switch {
	case c.ProfileFile == "" && c.RandomVoters <= 0:
		return fmt.Errorf("%w: need -profile or -random-voters", ErrUsage)
	case c.ProfileFile != "" && c.RandomVoters > 0:
		return fmt.Errorf("%w: -profile and -random-voters are exclusive", ErrUsage)
	case c.RandomVoters > 0 && c.RandomCandidates <= 0:
		return fmt.Errorf("%w: -random-candidates must be positive", ErrUsage)
	case c.Indexed && c.BaseURL != "":
		return fmt.Errorf("%w: -indexed runs locally only", ErrUsage)
	case c.Format != "text" && c.Format != "json":
		return fmt.Errorf("%w: unknown format %q", ErrUsage, c.Format)
	}
	return nil
}

// ShowHelp prints usage information.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `consensus-cli
=============

Tally a ranked-ballot profile under plurality, borda, positional and
random dictator rules.

Usage:
  consensus-cli -profile ballots.yaml [options]
  consensus-cli -random-voters 1000 -random-candidates 5 [options]

Options:
  -profile string          YAML or JSON profile: a list of ballots, or a
                           mapping with "ballots" and optional "rule"/"weights"
  -rule string             comma-separated rules or "all"
  -weights string          positional weights, e.g. 3,1,0
  -indexed                 integer-keyed scoring rules (ties to lower index)
  -seed uint               reproducible random dictator and generated profiles
  -random-voters int       generate a profile with this many voters
  -random-candidates int   candidates in the generated profile
  -url string              submit to a running service, e.g. http://localhost:9080
  -timeout duration        HTTP timeout and remote wait budget (default 30s)
  -workers int             rules evaluated concurrently (default 4)
  -format string           text or json (default text)
  -output string           save the tallied profile as YAML
  -log string              mirror logs to a file
  -verbose                 verbose logging

Examples:
  consensus-cli -profile ballots.yaml
  consensus-cli -profile ballots.json -rule positional -weights 2,1,0
  consensus-cli -random-voters 500 -random-candidates 4 -seed 7 -format json
  consensus-cli -profile ballots.yaml -url http://localhost:9080
`)
}
