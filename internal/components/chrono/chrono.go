package chrono

import (
	"context"
	"time"
)

// API is the clock everything that waits on the target site goes through.
// The portal gives no completion events, so fixed waits are the only
// synchronization available, tests swap this out to avoid sleeping for real.
//
// After makes it usable as a retry-go Timer.
type API interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
	After(d time.Duration) <-chan time.Time
}

type StandardImpl struct{}

func NewStandardImpl() StandardImpl {
	return StandardImpl{}
}

func (StandardImpl) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func (StandardImpl) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (StandardImpl) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
