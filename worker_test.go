package mailq

import (
	"context"
	"testing"
	"time"

	"github.com/UniQw/mailq/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorker_Defaults(t *testing.T) {
	_, rdb := newMiniClient(t)
	c := quietClient(rdb)
	w := NewWorker(c, NewMux(), WorkerConfig{})
	assert.Equal(t, AllQueues, w.cfg.Queue)
	assert.Equal(t, DefaultSleep, w.cfg.Sleep)
	assert.Equal(t, DefaultCleanupEvery, w.cfg.CleanupEvery)
	assert.Equal(t, c.log, w.cfg.Logger)
	assert.Equal(t, WorkerInit, w.State())
}

func TestWorker_StopFromAnotherGoroutine(t *testing.T) {
	_, rdb := newMiniClient(t)
	w := NewWorker(quietClient(rdb), NewMux(), WorkerConfig{Sleep: time.Hour})

	res := make(chan Summary, 1)
	go func() {
		sum, _ := w.Run(context.Background())
		res <- sum
	}()
	require.Eventually(t, func() bool { return w.State() == WorkerRunning }, time.Second, time.Millisecond)
	w.Stop()

	select {
	case sum := <-res:
		assert.Equal(t, CauseSignal, sum.Cause)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, WorkerStopped, w.State())
}

func TestWorker_Timeout(t *testing.T) {
	_, rdb := newMiniClient(t)
	w := NewWorker(quietClient(rdb), NewMux(), WorkerConfig{Timeout: 50 * time.Millisecond, Sleep: 10 * time.Millisecond})

	start := time.Now()
	sum, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CauseTimeout, sum.Cause)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWorker_MiddlewareApplies(t *testing.T) {
	_, rdb := newMiniClient(t)
	c := quietClient(rdb)
	ctx := context.Background()
	_, err := c.EnqueueJob(ctx, job.TypeProcessing, job.ProcessingPayload{MessageID: "m"})
	require.NoError(t, err)

	var seen []string
	mux := NewMux()
	mux.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, j *job.Job) error {
			seen = append(seen, "mw:"+j.Type.String())
			return next(ctx, j)
		}
	})
	mux.Handle(job.TypeProcessing, func(_ context.Context, j *job.Job) error {
		var p job.ProcessingPayload
		if err := job.DecodePayload(j, &p); err != nil {
			return err
		}
		seen = append(seen, "handler:"+p.MessageID)
		return nil
	})

	sum, err := NewWorker(c, mux, WorkerConfig{Queue: job.QueueProcessing, MaxJobs: 1}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, []string{"mw:email_processing", "handler:m"}, seen)
}

func TestWorker_RunsCleanupPeriodically(t *testing.T) {
	_, rdb := newMiniClient(t)
	c := quietClient(rdb, WithFailedCap(1))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.EnqueueJob(ctx, job.TypeCleanup, nil)
		require.NoError(t, err)
	}
	mux := NewMux()
	mux.Handle(job.TypeCleanup, func(context.Context, *job.Job) error { return assert.AnError })

	sum, err := NewWorker(c, mux, WorkerConfig{Queue: job.QueueCleanup, MaxJobs: 3, CleanupEvery: 3}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.DeadLettered)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Failed, "cleanup trimmed the failed list to its cap")
}

func TestMuxRouter_NilMux(t *testing.T) {
	h, ok := muxRouter(nil)(job.TypeSending)
	assert.False(t, ok)
	assert.Nil(t, h)
}
