package profile

import (
	"errors"
	"fmt"
)

// Sentinel kinds for profile validation. Typed errors below unwrap to
// ErrInvalidProfile so callers can match the whole family with errors.Is.
var (
	ErrInvalidProfile = errors.New("invalid preference profile")
	ErrEmptyProfile   = errors.New("empty preference profile")
)

// LengthMismatchError reports a ballot whose length differs from the first ballot.
type LengthMismatchError struct {
	Index int
	Want  int
	Got   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("ballot %d has %d candidates, want %d", e.Index, e.Got, e.Want)
}

func (e *LengthMismatchError) Unwrap() error { return ErrInvalidProfile }

// SetMismatchError reports two ballots that rank different candidate sets.
type SetMismatchError struct {
	I int
	J int
}

func (e *SetMismatchError) Error() string {
	return fmt.Sprintf("ballots %d and %d rank different candidate sets", e.I, e.J)
}

func (e *SetMismatchError) Unwrap() error { return ErrInvalidProfile }

// DuplicateCandidateError reports a ballot naming the same candidate twice.
// First and Second are the two positions holding the repeated candidate.
type DuplicateCandidateError struct {
	Ballot int
	First  int
	Second int
}

func (e *DuplicateCandidateError) Error() string {
	return fmt.Sprintf("ballot %d repeats a candidate at positions %d and %d", e.Ballot, e.First, e.Second)
}

func (e *DuplicateCandidateError) Unwrap() error { return ErrInvalidProfile }

// CandidateRangeError reports an integer-keyed candidate outside 0..Size-1.
type CandidateRangeError struct {
	Ballot   int
	Position int
	Value    int
	Size     int
}

func (e *CandidateRangeError) Error() string {
	return fmt.Sprintf("ballot %d position %d holds candidate %d, want 0..%d", e.Ballot, e.Position, e.Value, e.Size-1)
}

func (e *CandidateRangeError) Unwrap() error { return ErrInvalidProfile }

// Reason returns a short, stable label for a validation error, suitable for
// metrics labels and API error codes.
func Reason(err error) string {
	var (
		lengthErr *LengthMismatchError
		setErr    *SetMismatchError
		dupErr    *DuplicateCandidateError
		rangeErr  *CandidateRangeError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyProfile):
		return "empty_profile"
	case errors.As(err, &lengthErr):
		return "length_mismatch"
	case errors.As(err, &setErr):
		return "set_mismatch"
	case errors.As(err, &dupErr):
		return "duplicate_candidate"
	case errors.As(err, &rangeErr):
		return "candidate_out_of_range"
	default:
		return "unknown"
	}
}
