package network

import (
	"context"
	"time"
)

// Retry is a delay between failed attempts
// that doubles up to the max value.
type Retry struct {
	t     time.Duration
	start time.Duration
	max   time.Duration
}

func NewRetry(start, max time.Duration) *Retry {
	if max < start {
		max = start
	}
	return &Retry{t: start, start: start, max: max}
}

// Wait sleeps the current delay and makes the next one longer.
func (r *Retry) Wait(ctx context.Context) error {
	t := time.NewTimer(r.t)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	if r.t *= 2; r.t > r.max {
		r.t = r.max
	}
	return nil
}

func (r *Retry) Success()            { r.t = r.start }
func (r *Retry) Time() time.Duration { return r.t }
