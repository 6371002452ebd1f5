package cli

import "time"

// Defaults for flags.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultWorkers  = 4
	DefaultRule     = "all"
	DefaultFormat   = "text"
	pollInterval    = 50 * time.Millisecond
	filePermission  = 0o600
	dirPermission   = 0o750
	statusCompleted = "completed"
	statusFailed    = "failed"
)
