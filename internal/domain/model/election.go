// Package model contains domain models passed between layers.
package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/okian/consensus/internal/domain/profile"
)

// Election is a preference profile submitted for tallying under one rule.
type Election struct {
	ID          string     // unique id for idempotency
	Rule        string     // canonical rule name
	Weights     []float64  // positional weights, only for weighted rules
	Ballots     [][]string // each ballot lists candidate names, most preferred first
	SubmittedAt time.Time
}

// NewElectionID returns a fresh random election id.
func NewElectionID() string {
	return uuid.NewString()
}

// Profile views the ballots as a profile without copying them.
func (e Election) Profile() profile.Profile[string] {
	p := make(profile.Profile[string], len(e.Ballots))
	for i, b := range e.Ballots {
		p[i] = b
	}
	return p
}

// Voters returns the number of ballots.
func (e Election) Voters() int { return len(e.Ballots) }

// Candidates returns the length of the first ballot, 0 when there is none.
func (e Election) Candidates() int {
	if len(e.Ballots) == 0 {
		return 0
	}
	return len(e.Ballots[0])
}

// Status is the lifecycle state of a tally.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Tally is the stored record of an election's outcome.
type Tally struct {
	ElectionID  string
	Rule        string
	Status      Status
	Ranking     []string  // collective order, winner first
	Scores      []float64 // aligned with Ranking; nil for non-scoring rules
	Dictator    int       // ballot index adopted by the random dictator, -1 otherwise
	Voters      int
	Candidates  int
	Error       string // failure reason when Status is StatusFailed
	SubmittedAt time.Time
	CompletedAt time.Time
}

// Pending returns the placeholder record stored while e waits in the queue.
func Pending(e Election) Tally {
	return Tally{
		ElectionID:  e.ID,
		Rule:        e.Rule,
		Status:      StatusPending,
		Dictator:    -1,
		Voters:      e.Voters(),
		Candidates:  e.Candidates(),
		SubmittedAt: e.SubmittedAt,
	}
}

// Winner returns the top-ranked candidate, if any.
func (t Tally) Winner() (string, bool) {
	if len(t.Ranking) == 0 {
		return "", false
	}
	return t.Ranking[0], true
}

// Clone returns a deep copy so stored records cannot be mutated by readers.
func (t Tally) Clone() Tally {
	t.Ranking = slices.Clone(t.Ranking)
	t.Scores = slices.Clone(t.Scores)
	return t
}
