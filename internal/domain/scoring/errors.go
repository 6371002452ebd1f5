package scoring

import (
	"errors"
	"fmt"
)

// Sentinel kinds for scoring errors.
var (
	ErrInvalidWeights = errors.New("invalid weight vector")
)

// InvalidWeightsError reports a weight vector whose length differs from the
// ballot length.
type InvalidWeightsError struct {
	Want int
	Got  int
}

func (e *InvalidWeightsError) Error() string {
	return fmt.Sprintf("weight vector has %d entries, ballots rank %d candidates", e.Got, e.Want)
}

func (e *InvalidWeightsError) Unwrap() error { return ErrInvalidWeights }
