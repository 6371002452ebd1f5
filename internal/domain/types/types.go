// Package types contains common types used across the application
package types

// Standing is one row of a published collective ranking.
type Standing struct {
	Position  int      `json:"position"`
	Candidate string   `json:"candidate"`
	Score     *float64 `json:"score,omitempty"`
}

// Standings zips a ranking with its scores. scores may be nil, in which case
// no row carries a score.
func Standings(ranking []string, scores []float64) []Standing {
	out := make([]Standing, len(ranking))
	for i, c := range ranking {
		out[i] = Standing{Position: i + 1, Candidate: c}
		if i < len(scores) {
			s := scores[i]
			out[i].Score = &s
		}
	}
	return out
}
