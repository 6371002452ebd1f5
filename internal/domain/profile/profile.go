// Package profile defines preference profiles and the audit that every
// aggregation runs before touching a ballot.
package profile

// Candidate is anything a ballot can rank. Equality and hashing come from
// comparable; values are copied by assignment.
type Candidate interface {
	comparable
}

// Ballot is one voter's full ranking, most preferred first.
type Ballot[C Candidate] []C

// Profile is the ordered collection of ballots for one election.
type Profile[C Candidate] []Ballot[C]

// Voters returns the number of ballots.
func (p Profile[C]) Voters() int { return len(p) }

// Candidates returns the ballot length established by the first ballot,
// or 0 for an empty profile.
func (p Profile[C]) Candidates() int {
	if len(p) == 0 {
		return 0
	}
	return len(p[0])
}

// Clone returns a copy of the ballot.
func (b Ballot[C]) Clone() Ballot[C] {
	out := make(Ballot[C], len(b))
	copy(out, b)
	return out
}

// Audit verifies that p is non-empty and that every ballot is a permutation
// of the same candidate set. Checks run in order: lengths, duplicates within
// a ballot, then set equality against the first ballot. The first failure is
// returned; p is never modified.
func Audit[C Candidate](p Profile[C]) error {
	if len(p) == 0 {
		return ErrEmptyProfile
	}

	m := len(p[0])
	for i, b := range p {
		if len(b) != m {
			return &LengthMismatchError{Index: i, Want: m, Got: len(b)}
		}
	}

	// Position of each candidate on the first ballot. With every ballot
	// duplicate-free and of length m, containing all of ref means equal sets.
	ref := make(map[C]int, m)
	seen := make(map[C]int, m)
	for i, b := range p {
		clear(seen)
		for pos, c := range b {
			if first, dup := seen[c]; dup {
				return &DuplicateCandidateError{Ballot: i, First: first, Second: pos}
			}
			seen[c] = pos
		}
		if i == 0 {
			for c, pos := range seen {
				ref[c] = pos
			}
			continue
		}
		for _, c := range b {
			if _, ok := ref[c]; !ok {
				return &SetMismatchError{I: 0, J: i}
			}
		}
	}
	return nil
}

// AuditIndexed audits an integer-keyed profile, where candidates must be
// exactly the indices 0..M-1.
func AuditIndexed(p Profile[int]) error {
	if err := Audit(p); err != nil {
		return err
	}
	// All ballots share ballot 0's set, so checking it covers the profile.
	m := len(p[0])
	for pos, c := range p[0] {
		if c < 0 || c >= m {
			return &CandidateRangeError{Ballot: 0, Position: pos, Value: c, Size: m}
		}
	}
	return nil
}
