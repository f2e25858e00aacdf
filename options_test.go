package mailq

import (
	"testing"
	"time"

	"github.com/UniQw/mailq/job"
	"github.com/stretchr/testify/require"
)

func TestOptions_Setters(t *testing.T) {
	var o options

	JobID("id-1")(&o)
	require.Equal(t, "id-1", o.id, "JobID not set")

	Queue("email:custom")(&o)
	require.Equal(t, "email:custom", o.queue, "Queue not set")

	WithPriority(job.PriorityHigh)(&o)
	require.Equal(t, job.PriorityHigh, o.priority, "WithPriority not set")

	MaxAttempts(7)(&o)
	require.Equal(t, 7, o.maxAttempts, "MaxAttempts not set")
}

func TestClientOptions(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newClient(nil,
		WithLogger(NewNopLogger()),
		WithBaseDelay(time.Second),
		WithMaxDelay(time.Minute),
		WithCompletedTTL(time.Hour),
		WithFailedCap(10),
		WithRetryBatch(5),
		WithClock(func() time.Time { return fixed }),
	)
	require.Equal(t, time.Second, c.backoff.Base)
	require.Equal(t, time.Minute, c.backoff.Max)
	require.Equal(t, time.Hour, c.completedTTL)
	require.Equal(t, int64(10), c.failedCap)
	require.Equal(t, int64(5), c.retryBatch)
	require.Equal(t, fixed, c.now())
}

func TestClientOptions_IgnoreInvalid(t *testing.T) {
	c := newClient(nil, WithLogger(nil), WithFailedCap(0), WithRetryBatch(-1), WithClock(nil))
	require.IsType(t, &FmtLogger{}, c.log)
	require.Equal(t, int64(DefaultFailedCap), c.failedCap)
	require.Equal(t, int64(DefaultRetryBatch), c.retryBatch)
	require.NotNil(t, c.now)
}
