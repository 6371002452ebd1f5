package service

import (
	"errors"
	"fmt"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrBackpressure  = errors.New("tally queue is full, retry later")
	ErrLimitExceeded = errors.New("profile exceeds configured limits")
)

// LimitError reports a profile dimension above its configured maximum.
type LimitError struct {
	Field string
	Limit int
	Got   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %d exceeds limit %d", e.Field, e.Got, e.Limit)
}

func (e *LimitError) Unwrap() error { return ErrLimitExceeded }
