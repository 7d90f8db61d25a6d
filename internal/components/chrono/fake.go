package chrono

import (
	"context"
	"sync"
	"time"
)

// FakeImpl never blocks, it advances its own notion of time and remembers
// every wait that was asked of it.
type FakeImpl struct {
	mutex sync.Mutex
	now   time.Time
	waits []time.Duration
}

func NewFakeImpl(start time.Time) *FakeImpl {
	return &FakeImpl{now: start}
}

func (f *FakeImpl) Now() time.Time {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.now
}

func (f *FakeImpl) advance(d time.Duration) time.Time {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.now = f.now.Add(d)
	f.waits = append(f.waits, d)
	return f.now
}

func (f *FakeImpl) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.advance(d)
	return nil
}

func (f *FakeImpl) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- f.advance(d)
	return ch
}

// Waits returns every duration waited on so far, in order.
func (f *FakeImpl) Waits() []time.Duration {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]time.Duration(nil), f.waits...)
}
