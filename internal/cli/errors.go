package cli

import "errors"

// Sentinel errors.
var (
	ErrProfile       = errors.New("cannot read profile")
	ErrUsage         = errors.New("invalid usage")
	ErrNoIndexed     = errors.New("rule has no indexed variant")
	ErrRemote        = errors.New("remote tally failed")
	ErrRemoteTimeout = errors.New("timed out waiting for remote tally")
)
