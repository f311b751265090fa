package mirror

import (
	"context"
	"time"
)

// Pacer spaces out remote calls so the walk does not trip the server's rate
// limiter. The pacing policy is external to the walk logic.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer waits a fixed delay on every call.
type FixedPacer struct {
	delay time.Duration
}

func NewFixedPacer(delay time.Duration) *FixedPacer {
	return &FixedPacer{delay: delay}
}

func (p *FixedPacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
