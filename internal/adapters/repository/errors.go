package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("election not found")
	ErrMissingID      = errors.New("tally record has no election id")
	ErrAlreadySettled = errors.New("election already tallied")
)
