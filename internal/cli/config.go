package cli

import "time"

// Config holds the parsed command line.
type Config struct {
	ProfileFile      string        // YAML or JSON profile to tally
	Rules            []string      // canonical rule names to run
	Weights          []float64     // positional weights, overrides the file's
	Indexed          bool          // treat candidates as 0..M-1 and use the indexed entry points
	Seed             uint64        // random dictator seed; 0 draws from the global source
	RandomVoters     int           // generate a profile instead of reading one
	RandomCandidates int           // candidates in a generated profile
	BaseURL          string        // submit to a running service instead of tallying locally
	Timeout          time.Duration // HTTP request timeout and remote poll budget
	Workers          int           // concurrent rule evaluations
	Format           string        // "text" or "json"
	OutputFile       string        // write the profile that was tallied
	LogFile          string        // mirror logs to this file
	Verbose          bool
}

// ProfileDoc is the on-disk profile format. A bare list of ballots is also
// accepted.
type ProfileDoc struct {
	Rule    string     `yaml:"rule,omitempty" json:"rule,omitempty"`
	Weights []float64  `yaml:"weights,omitempty" json:"weights,omitempty"`
	Ballots [][]string `yaml:"ballots" json:"ballots"`
}

// Result is the outcome of one rule over the profile.
type Result struct {
	Rule     string    `json:"rule"`
	Ranking  []string  `json:"ranking,omitempty"`
	Scores   []float64 `json:"scores,omitempty"`
	Dictator *int      `json:"dictator,omitempty"`
	Error    string    `json:"error,omitempty"`
	Elapsed  string    `json:"elapsed"`
}

// Winner returns the top-ranked candidate or "".
func (r Result) Winner() string {
	if len(r.Ranking) == 0 {
		return ""
	}
	return r.Ranking[0]
}

// ackResponse mirrors POST /elections.
type ackResponse struct {
	Status     string `json:"status"`
	ElectionID string `json:"election_id"`
	Duplicate  bool   `json:"duplicate"`
}

type standing struct {
	Score *float64 `json:"score"`
}

// tallyResponse mirrors GET /elections/{id}.
type tallyResponse struct {
	ElectionID string     `json:"election_id"`
	Rule       string     `json:"rule"`
	Status     string     `json:"status"`
	Ranking    []string   `json:"ranking"`
	Standings  []standing `json:"standings"`
	Dictator   *int       `json:"dictator"`
	Error      string     `json:"error"`
}

type errorResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}
