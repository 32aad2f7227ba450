package pipeline

import (
	"fmt"
	"time"
)

// Config holds the pacing and concurrency settings of a run.
type Config struct {
	// OuterConcurrency bounds how many contests are processed at once.
	OuterConcurrency int
	// InnerConcurrency bounds status lookups in flight per contest.
	InnerConcurrency int
	// OuterDelay is waited before each contest info request.
	OuterDelay time.Duration
	// InnerDelay is waited before each status lookup.
	InnerDelay time.Duration
}

// DefaultConfig returns the settings the contest list page tolerates.
func DefaultConfig() Config {
	return Config{
		OuterConcurrency: 3,
		InnerConcurrency: 6,
		OuterDelay:       150 * time.Millisecond,
		InnerDelay:       120 * time.Millisecond,
	}
}

// Validate rejects settings that cannot run.
func (c Config) Validate() error {
	if c.OuterConcurrency <= 0 {
		return fmt.Errorf("outer_concurrency must be > 0 (got %d)", c.OuterConcurrency)
	}
	if c.InnerConcurrency <= 0 {
		return fmt.Errorf("inner_concurrency must be > 0 (got %d)", c.InnerConcurrency)
	}
	if c.OuterDelay < 0 {
		return fmt.Errorf("outer_delay must be >= 0 (got %s)", c.OuterDelay)
	}
	if c.InnerDelay < 0 {
		return fmt.Errorf("inner_delay must be >= 0 (got %s)", c.InnerDelay)
	}
	return nil
}

// MaxInFlight is the upper bound of simultaneous remote calls: every outer slot can
// run a full inner fan-out.
func (c Config) MaxInFlight() int {
	return c.OuterConcurrency * c.InnerConcurrency
}
