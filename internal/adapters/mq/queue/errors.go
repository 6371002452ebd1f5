package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrQueueFull   = errors.New("tally queue full")
	ErrQueueClosed = errors.New("tally queue closed")
)
