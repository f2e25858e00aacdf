package mailq

import (
	"context"
	"fmt"

	cronlib "github.com/robfig/cron/v3"

	"github.com/UniQw/mailq/job"
)

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Recurring describes a job enqueued on a cron schedule.
type Recurring struct {
	// Spec is a cron expression or descriptor ("@hourly", "@every 15m").
	Spec    string
	Type    job.Type
	Payload any
	Opts    []Option
}

// Scheduler enqueues recurring jobs, typically cleanup. Every scheduler
// process enqueues independently; run one per deployment.
type Scheduler struct {
	c       *Client
	log     Logger
	cron    *cronlib.Cron
	entries []Recurring
}

// NewScheduler validates every entry and returns a scheduler ready to Run.
func NewScheduler(c *Client, entries ...Recurring) (*Scheduler, error) {
	s := &Scheduler{
		c:    c,
		log:  c.log,
		cron: cronlib.New(cronlib.WithParser(cronParser)),
	}
	for _, e := range entries {
		if _, err := job.ParseType(string(e.Type)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
		}
		sched, err := ParseSchedule(e.Spec)
		if err != nil {
			return nil, fmt.Errorf("mailq: schedule %q: %w", e.Spec, err)
		}
		s.cron.Schedule(sched, cronlib.FuncJob(func() { s.fire(context.Background(), e) }))
		s.entries = append(s.entries, e)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done. It waits for a
// firing in progress to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Infof("scheduler starting: entries=%d", len(s.entries))
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Infof("scheduler stopped")
	return nil
}

func (s *Scheduler) fire(ctx context.Context, e Recurring) {
	j, err := s.c.EnqueueJob(ctx, e.Type, e.Payload, e.Opts...)
	if err != nil {
		s.log.Errorf("scheduled enqueue failed: type=%s spec=%q err=%v", e.Type, e.Spec, err)
		return
	}
	s.log.Debugf("scheduled enqueue: id=%s type=%s spec=%q", j.ID, e.Type, e.Spec)
}
