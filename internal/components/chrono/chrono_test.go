package chrono

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewStandardImpl().Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFakeRecordsWaits(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeImpl(start)

	require.NoError(t, clock.Sleep(context.Background(), 3*time.Second))
	<-clock.After(2 * time.Second)

	require.Equal(t, []time.Duration{3 * time.Second, 2 * time.Second}, clock.Waits())
	require.Equal(t, start.Add(5*time.Second), clock.Now())
}
