package usecase

import (
	"context"
	"time"
)

// Outcome reports how one orchestrator attempt ended.
type Outcome int

const (
	// OutcomeSkipped: nothing was started (disabled, busy, not triggered).
	OutcomeSkipped Outcome = iota
	// OutcomeEmpty: no qualifying content, no remote call.
	OutcomeEmpty
	OutcomeSucceeded
	OutcomeFailed
	// OutcomeStale: the session moved on before completion; result dropped.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeStale:
		return "stale"
	default:
		return "skipped"
	}
}

const defaultCallTimeout = 60 * time.Second

func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
