package model

import "time"

// Shared defaults used by both the service and TUI binaries.
const (
	DefaultSwipeThreshold = 100.0
	DefaultExitDuration   = 300 * time.Millisecond
	DefaultLowWaterMark   = 2
	DefaultPageSize       = 5
	DefaultRateLimitReset = 15 * time.Minute
	DefaultServiceAddr    = "127.0.0.1:3000"

	// DefaultAuditRetentionDays is how long delete audit entries are kept.
	DefaultAuditRetentionDays = 90
)
