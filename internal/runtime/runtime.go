package runtime

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/UniQw/mailq/internal/hctx"
	"github.com/UniQw/mailq/job"
)

// TargetAll makes the worker poll every queue in Config.Queues.
const TargetAll = "all"

// ErrNoHandler is the failure recorded for jobs whose type has no handler.
var ErrNoHandler = errors.New("mailq: unknown job type")

// ErrAlreadyStarted is returned when Run is called on a runtime that has already run.
var ErrAlreadyStarted = errors.New("runtime: already started")

// Logger is a minimal logging interface used internally by the runtime.
// It mirrors the public logger in the root package to avoid an import cycle.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

// Queue is the part of the queue service the worker loop drives.
type Queue interface {
	Dequeue(ctx context.Context, queueName string) (*job.Job, error)
	MarkCompleted(ctx context.Context, j *job.Job) error
	MarkFailed(ctx context.Context, j *job.Job, cause error) (bool, error)
	ProcessRetryQueue(ctx context.Context) (int, error)
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
}

// Handler executes one job.
type Handler func(ctx context.Context, j *job.Job) error

// Router resolves the handler for a job type.
type Router func(t job.Type) (Handler, bool)

type Config struct {
	// Target is a queue name or TargetAll.
	Target string
	// Queues is the polling order used for TargetAll.
	Queues []string
	// MaxJobs stops the loop after this many jobs. 0 is unbounded.
	MaxJobs int
	// Timeout stops the loop once this much time has elapsed. 0 is unbounded.
	Timeout time.Duration
	// Sleep is the pause after a poll that found no job.
	Sleep time.Duration
	// CleanupEvery runs Queue.Cleanup after every N processed jobs. 0 disables it.
	CleanupEvery int
	// CleanupMaxAge is passed to Queue.Cleanup.
	CleanupMaxAge time.Duration
	Logger        Logger
}

// State is the lifecycle position of a runtime.
type State int32

const (
	StateInit State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ExitCause says why the loop ended.
type ExitCause string

const (
	CauseSignal  ExitCause = "signal"
	CauseMaxJobs ExitCause = "max_jobs"
	CauseTimeout ExitCause = "timeout"
	CauseError   ExitCause = "error"
)

// Outcome classifies one handler invocation. Every value other than
// OutcomeOK is a failed attempt.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeHandlerError
	OutcomeUnknownType
	OutcomePanic
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeHandlerError:
		return "handler_error"
	case OutcomeUnknownType:
		return "unknown_type"
	case OutcomePanic:
		return "panic"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Summary describes a finished run.
type Summary struct {
	Processed    int
	Succeeded    int
	Failed       int
	DeadLettered int
	Elapsed      time.Duration
	Cause        ExitCause
}

// Runtime is a single-goroutine polling loop. It handles one job at a time.
type Runtime struct {
	q      Queue
	route  Router
	cfg    Config
	log    Logger
	now    func() time.Time
	state  atomic.Int32
	stop   atomic.Bool
	wake   chan struct{}
	wakeMu sync.Once
}

// New creates a runtime. Call Run to start the loop.
func New(q Queue, route Router, cfg Config) *Runtime {
	lg := cfg.Logger
	if lg == nil {
		lg = noopLogger{}
	}
	if cfg.Target == "" {
		cfg.Target = TargetAll
	}
	if cfg.Sleep < 0 {
		cfg.Sleep = 0
	}
	return &Runtime{
		q:     q,
		route: route,
		cfg:   cfg,
		log:   lg,
		now:   time.Now,
		wake:  make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (rt *Runtime) State() State { return State(rt.state.Load()) }

// Stop asks the loop to exit. The flag is observed at the top of the next
// iteration; a job already dispatched runs to completion. Safe to call from
// any goroutine, any number of times.
func (rt *Runtime) Stop() {
	rt.stop.Store(true)
	rt.wakeMu.Do(func() { close(rt.wake) })
}

// Run drives the loop until ctx is cancelled, Stop is called, a bound is
// reached, or a queue operation outside dispatch fails. In the last case the
// error is returned and Summary.Cause is CauseError.
//
// Cancelling ctx only stops the loop. Store calls and the in-flight handler
// use a context detached from cancellation, so the current job's completion or
// failure is still recorded.
func (rt *Runtime) Run(ctx context.Context) (Summary, error) {
	if !rt.state.CompareAndSwap(int32(StateInit), int32(StateRunning)) {
		return Summary{}, ErrAlreadyStarted
	}
	work := context.WithoutCancel(ctx)
	start := rt.now()
	var sum Summary

	rt.log.Infof("worker starting: target=%s max_jobs=%d timeout=%s sleep=%s",
		rt.cfg.Target, rt.cfg.MaxJobs, rt.cfg.Timeout, rt.cfg.Sleep)

	err := rt.loop(ctx, work, start, &sum)

	rt.state.Store(int32(StateStopping))
	sum.Elapsed = rt.now().Sub(start)
	if err != nil {
		sum.Cause = CauseError
		rt.log.Errorf("worker aborted: processed=%d elapsed=%.1fs err=%v", sum.Processed, sum.Elapsed.Seconds(), err)
	}
	rt.log.Infof("worker stopped: processed=%d succeeded=%d failed=%d dead=%d elapsed=%.1fs cause=%s",
		sum.Processed, sum.Succeeded, sum.Failed, sum.DeadLettered, sum.Elapsed.Seconds(), sum.Cause)
	rt.state.Store(int32(StateStopped))
	return sum, err
}

func (rt *Runtime) loop(ctx, work context.Context, start time.Time, sum *Summary) error {
	for {
		if ctx.Err() != nil || rt.stop.Load() {
			sum.Cause = CauseSignal
			return nil
		}
		if rt.cfg.Timeout > 0 && rt.now().Sub(start) >= rt.cfg.Timeout {
			sum.Cause = CauseTimeout
			return nil
		}
		if rt.cfg.MaxJobs > 0 && sum.Processed >= rt.cfg.MaxJobs {
			sum.Cause = CauseMaxJobs
			return nil
		}

		moved, err := rt.q.ProcessRetryQueue(work)
		if err != nil {
			return fmt.Errorf("process retry queue: %w", err)
		}
		if moved > 0 {
			rt.log.Infof("retry queue: promoted=%d", moved)
		}

		j := rt.next(work)
		if j == nil {
			rt.sleep(ctx)
			continue
		}

		if err := rt.handle(work, j, sum); err != nil {
			return err
		}
		sum.Processed++

		if rt.cfg.CleanupEvery > 0 && sum.Processed%rt.cfg.CleanupEvery == 0 {
			n, err := rt.q.Cleanup(work, rt.cfg.CleanupMaxAge)
			if err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
			rt.log.Infof("cleanup: removed=%d processed=%d", n, sum.Processed)
		}
	}
}

// next returns the first job found across the target queues, or nil.
// Dequeue errors are treated as transient and only logged.
func (rt *Runtime) next(ctx context.Context) *job.Job {
	queues := []string{rt.cfg.Target}
	if rt.cfg.Target == TargetAll {
		queues = rt.cfg.Queues
	}
	for _, q := range queues {
		j, err := rt.q.Dequeue(ctx, q)
		if err != nil {
			rt.log.Warnf("dequeue failed: queue=%s err=%v", q, err)
			continue
		}
		if j != nil {
			return j
		}
	}
	return nil
}

func (rt *Runtime) sleep(ctx context.Context) {
	if rt.cfg.Sleep <= 0 {
		return
	}
	t := time.NewTimer(rt.cfg.Sleep)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-rt.wake:
	case <-t.C:
	}
}

// handle dispatches j and records the outcome. Only store errors are returned.
func (rt *Runtime) handle(ctx context.Context, j *job.Job, sum *Summary) error {
	st := hctx.New()
	outcome, herr := rt.dispatch(hctx.WithState(ctx, st), j)

	if outcome == OutcomeOK {
		j.Result = st.Result
		if err := rt.q.MarkCompleted(ctx, j); err != nil {
			return fmt.Errorf("mark completed %s: %w", j.ID, err)
		}
		sum.Succeeded++
		rt.log.Debugf("processed: id=%s type=%s queue=%s", j.ID, j.Type, j.Queue)
		return nil
	}

	retried, err := rt.q.MarkFailed(ctx, j, herr)
	if err != nil {
		return fmt.Errorf("mark failed %s: %w", j.ID, err)
	}
	sum.Failed++
	if !retried {
		sum.DeadLettered++
	}
	rt.log.Warnf("job attempt failed: id=%s type=%s queue=%s outcome=%s retry=%t",
		j.ID, j.Type, j.Queue, outcome, retried)
	return nil
}

// dispatch runs the handler for j. A missing handler and a panic are
// reported as outcomes, never propagated.
func (rt *Runtime) dispatch(ctx context.Context, j *job.Job) (outcome Outcome, err error) {
	h, ok := rt.route(j.Type)
	if !ok || h == nil {
		return OutcomeUnknownType, fmt.Errorf("%w: %q", ErrNoHandler, j.Type)
	}
	defer func() {
		if r := recover(); r != nil {
			rt.log.Errorf("handler panic: id=%s type=%s panic=%v\n%s", j.ID, j.Type, r, debug.Stack())
			outcome = OutcomePanic
			err = fmt.Errorf("panic in %s handler: %v", j.Type, r)
		}
	}()
	if err := h(ctx, j); err != nil {
		return OutcomeHandlerError, err
	}
	return OutcomeOK, nil
}
