package mailq

import (
	"context"
	"testing"
	"time"

	"github.com/UniQw/mailq/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	for _, spec := range []string{"@hourly", "@every 15m", "*/5 * * * *", "0 3 * * 1"} {
		_, err := ParseSchedule(spec)
		require.NoError(t, err, spec)
	}
	_, err := ParseSchedule("* * * * * *")
	require.Error(t, err, "seconds field is not accepted")
	_, err = ParseSchedule("whenever")
	require.Error(t, err)
}

func TestNewScheduler_Rejects(t *testing.T) {
	_, rdb := newMiniClient(t)
	c := quietClient(rdb)

	_, err := NewScheduler(c, Recurring{Spec: "bogus", Type: job.TypeCleanup})
	require.Error(t, err)
	_, err = NewScheduler(c, Recurring{Spec: "@hourly", Type: "fax"})
	require.ErrorIs(t, err, ErrInvalidJob)
}

func TestScheduler_FireEnqueues(t *testing.T) {
	_, rdb := newMiniClient(t)
	c := quietClient(rdb)
	ctx := context.Background()

	e := Recurring{
		Spec:    "@hourly",
		Type:    job.TypeCleanup,
		Payload: job.CleanupPayload{Task: "queue", OlderThan: time.Hour},
		Opts:    []Option{WithPriority(job.PriorityLow)},
	}
	s, err := NewScheduler(c, e)
	require.NoError(t, err)
	s.fire(ctx, e)

	j, err := c.Dequeue(ctx, job.QueueCleanup)
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, job.PriorityLow, j.Priority)
	var p job.CleanupPayload
	require.NoError(t, job.DecodePayload(j, &p))
	assert.Equal(t, "queue", p.Task)
	assert.Equal(t, time.Hour, p.OlderThan)
}

func TestScheduler_RunFiresUntilCancelled(t *testing.T) {
	_, rdb := newMiniClient(t)
	c := quietClient(rdb)

	s, err := NewScheduler(c, Recurring{Spec: "@every 1s", Type: job.TypeCleanup, Payload: job.CleanupPayload{Task: "queue"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		st, err := c.Stats(context.Background())
		if err != nil {
			return false
		}
		for _, q := range st.Queues {
			if q.Queue == job.QueueCleanup && q.Normal > 0 {
				return true
			}
		}
		return false
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
