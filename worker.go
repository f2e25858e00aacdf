package mailq

import (
	"context"
	"time"

	rtm "github.com/UniQw/mailq/internal/runtime"
	"github.com/UniQw/mailq/job"
)

// AllQueues makes a worker poll every queue in job.Queues order.
const AllQueues = rtm.TargetAll

// Defaults applied by NewWorker.
const (
	DefaultSleep        = time.Second
	DefaultCleanupEvery = 100
)

// Summary, ExitCause and WorkerState are re-exported from the runtime.
type (
	Summary     = rtm.Summary
	ExitCause   = rtm.ExitCause
	WorkerState = rtm.State
)

const (
	CauseSignal  = rtm.CauseSignal
	CauseMaxJobs = rtm.CauseMaxJobs
	CauseTimeout = rtm.CauseTimeout
	CauseError   = rtm.CauseError

	WorkerInit     = rtm.StateInit
	WorkerRunning  = rtm.StateRunning
	WorkerStopping = rtm.StateStopping
	WorkerStopped  = rtm.StateStopped
)

// WorkerConfig defines the configuration for a worker process.
type WorkerConfig struct {
	// Queue is a single queue name or AllQueues. Empty means AllQueues.
	Queue string
	// MaxJobs stops the worker after this many jobs. 0 is unbounded.
	MaxJobs int
	// Timeout stops the worker once this much time has elapsed. 0 is unbounded.
	Timeout time.Duration
	// Sleep is the pause after a poll that found no job. 0 uses DefaultSleep;
	// a negative value disables the pause.
	Sleep time.Duration
	// CleanupEvery runs Client.Cleanup after every N processed jobs.
	// 0 uses DefaultCleanupEvery; a negative value disables it.
	CleanupEvery int
	// CleanupMaxAge is passed to Client.Cleanup. 0 uses the client's completed TTL.
	CleanupMaxAge time.Duration
	// Logger is the logger used for worker events. Defaults to the client's logger.
	Logger Logger
}

// Worker pulls jobs from the queue service one at a time and dispatches
// them through a Mux. A Worker runs once; create a new one to run again.
type Worker struct {
	rt  *rtm.Runtime
	cfg WorkerConfig
}

// NewWorker creates a worker that consumes from c and routes jobs through mux.
func NewWorker(c *Client, mux *Mux, cfg WorkerConfig) *Worker {
	if cfg.Queue == "" {
		cfg.Queue = AllQueues
	}
	if cfg.Sleep == 0 {
		cfg.Sleep = DefaultSleep
	}
	if cfg.CleanupEvery == 0 {
		cfg.CleanupEvery = DefaultCleanupEvery
	}
	if cfg.Logger == nil {
		cfg.Logger = c.log
	}

	every := cfg.CleanupEvery
	if every < 0 {
		every = 0
	}
	rtc := rtm.Config{
		Target:        cfg.Queue,
		Queues:        job.Queues,
		MaxJobs:       cfg.MaxJobs,
		Timeout:       cfg.Timeout,
		Sleep:         cfg.Sleep,
		CleanupEvery:  every,
		CleanupMaxAge: cfg.CleanupMaxAge,
		Logger:        cfg.Logger,
	}
	return &Worker{rt: rtm.New(c, muxRouter(mux), rtc), cfg: cfg}
}

// Run blocks until ctx is cancelled, Stop is called, MaxJobs or Timeout is
// reached, or a queue-store write fails. The returned error is non-nil only
// in the last case.
func (w *Worker) Run(ctx context.Context) (Summary, error) {
	return w.rt.Run(ctx)
}

// Stop asks a running worker to exit after its current job. It is safe to
// call from any goroutine.
func (w *Worker) Stop() { w.rt.Stop() }

// State reports the worker lifecycle state.
func (w *Worker) State() WorkerState { return w.rt.State() }

func muxRouter(mux *Mux) rtm.Router {
	return func(t job.Type) (rtm.Handler, bool) {
		if mux == nil {
			return nil, false
		}
		h, ok := mux.Lookup(t)
		if !ok {
			return nil, false
		}
		return rtm.Handler(h), true
	}
}
