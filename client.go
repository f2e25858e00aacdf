package mailq

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/UniQw/mailq/internal/backoff"
	ikeys "github.com/UniQw/mailq/internal/keys"
	"github.com/UniQw/mailq/internal/store"
	"github.com/UniQw/mailq/job"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client is the queue service: it enqueues and dequeues jobs, schedules
// retries, dead-letters exhausted jobs and reports queue statistics.
// It is safe for concurrent use.
type Client struct {
	st           store.Store
	log          Logger
	backoff      backoff.Exponential
	completedTTL time.Duration
	failedCap    int64
	retryBatch   int64
	now          func() time.Time
}

// NewClient creates a new queue client on top of a go-redis client.
func NewClient(rdb redis.UniversalClient, opts ...ClientOption) *Client {
	return newClient(store.NewRedis(rdb), opts...)
}

func newClient(st store.Store, opts ...ClientOption) *Client {
	c := &Client{
		st:           st,
		log:          NewFmtLogger(),
		backoff:      backoff.NewExponential(DefaultBaseDelay, DefaultMaxDelay),
		completedTTL: DefaultCompletedTTL,
		failedCap:    DefaultFailedCap,
		retryBatch:   DefaultRetryBatch,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks that the queue store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.st.Ping(ctx)
}

// Enqueue pushes j to the tail of the (queueName, priority) list.
// Missing ID, QueuedAt and MaxAttempts are filled in. A store failure is
// logged and returned wrapped in ErrEnqueueFailed; Enqueue never panics on it.
func (c *Client) Enqueue(ctx context.Context, queueName string, j *job.Job, priority job.Priority) error {
	if j == nil || j.Type == "" || queueName == "" {
		return ErrInvalidJob
	}
	p, err := job.ParsePriority(string(priority))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	j.Queue = queueName
	j.Priority = p
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.QueuedAt.IsZero() {
		j.QueuedAt = c.now().UTC()
	}
	if j.MaxAttempts <= 0 {
		j.MaxAttempts = job.DefaultMaxAttempts(j.Type)
	}

	raw, err := job.Encode(j)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	if err := c.st.PushTail(ctx, ikeys.List(queueName, p.String()), raw); err != nil {
		c.log.Errorf("enqueue failed: id=%s type=%s queue=%s priority=%s err=%v", j.ID, j.Type, queueName, p, err)
		return fmt.Errorf("%w: %w", ErrEnqueueFailed, err)
	}
	c.log.Infof("enqueued: id=%s type=%s queue=%s priority=%s", j.ID, j.Type, queueName, p)
	return nil
}

// EnqueueJob builds a job of type t from payload and enqueues it into the
// type's default queue at normal priority unless options say otherwise.
func (c *Client) EnqueueJob(ctx context.Context, t job.Type, payload any, opts ...Option) (*job.Job, error) {
	if _, err := job.ParseType(string(t)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	cfg := &options{priority: job.PriorityNormal}
	for _, opt := range opts {
		opt(cfg)
	}

	j, err := job.New(t, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	if cfg.id != "" {
		j.ID = cfg.id
	}
	if cfg.queue != "" {
		j.Queue = cfg.queue
	}
	if cfg.maxAttempts > 0 {
		j.MaxAttempts = cfg.maxAttempts
	}
	if err := c.Enqueue(ctx, j.Queue, j, cfg.priority); err != nil {
		return nil, err
	}
	return j, nil
}

// Dequeue pops the next job of queueName, trying high, normal and low in
// that order. It returns (nil, nil) when every list is empty.
func (c *Client) Dequeue(ctx context.Context, queueName string) (*job.Job, error) {
	for _, key := range ikeys.For(queueName).Ordered() {
		j, err := c.popDecodable(ctx, key)
		if err != nil {
			return nil, err
		}
		if j != nil {
			return j, nil
		}
	}
	return nil, nil
}

// popDecodable pops from key until an entry decodes or the list is empty.
// A lower priority is only tried once this list is drained.
func (c *Client) popDecodable(ctx context.Context, key string) (*job.Job, error) {
	for {
		raw, err := c.st.PopHead(ctx, key)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, nil
		}
		j, err := job.Decode(raw)
		if err != nil {
			// The entry is already popped; there is nothing to retry it with.
			c.log.Errorf("dropping undecodable job: key=%s err=%v", key, err)
			continue
		}
		return j, nil
	}
}

// MarkCompleted records a successful job under its id for the completed TTL.
// The record is for observability only and does not affect scheduling.
func (c *Client) MarkCompleted(ctx context.Context, j *job.Job) error {
	now := c.now().UTC()
	j.CompletedAt = &now
	raw, err := job.Encode(j)
	if err != nil {
		return err
	}
	if err := c.st.Set(ctx, ikeys.Completed(j.ID), raw, c.completedTTL); err != nil {
		return err
	}
	c.log.Debugf("completed: id=%s type=%s queue=%s attempts=%d", j.ID, j.Type, j.Queue, j.Attempts)
	return nil
}

// MarkFailed records a failed attempt. While attempts remain the job is
// scheduled into the retry set after min(base * 2^attempts, max) and true is
// returned; otherwise it is appended to the failed list and false is returned.
func (c *Client) MarkFailed(ctx context.Context, j *job.Job, cause error) (bool, error) {
	j.Attempts++
	if j.MaxAttempts <= 0 {
		j.MaxAttempts = job.DefaultMaxAttempts(j.Type)
	}
	if j.Attempts > j.MaxAttempts {
		j.Attempts = j.MaxAttempts
	}
	if cause != nil {
		j.LastError = cause.Error()
	}
	now := c.now()

	if j.Attempts < j.MaxAttempts {
		delay := c.backoff.Delay(j.Attempts)
		at := now.Add(delay)
		raw, err := job.Encode(j)
		if err != nil {
			return false, err
		}
		if err := c.st.ZAdd(ctx, ikeys.Retry, float64(at.Unix()), raw); err != nil {
			return false, err
		}
		c.log.Warnf("job failed, retry scheduled: id=%s type=%s queue=%s attempt=%d/%d delay=%s err=%s",
			j.ID, j.Type, j.Queue, j.Attempts, j.MaxAttempts, delay, j.LastError)
		return true, nil
	}

	failedAt := now.UTC()
	j.FailedAt = &failedAt
	raw, err := job.Encode(j)
	if err != nil {
		return false, err
	}
	if err := c.st.PushTail(ctx, ikeys.Failed, raw); err != nil {
		return false, err
	}
	c.log.Errorf("job failed permanently: id=%s type=%s queue=%s attempts=%d err=%s",
		j.ID, j.Type, j.Queue, j.Attempts, j.LastError)
	return false, nil
}

// ProcessRetryQueue promotes up to one batch of due retries back into their
// original (queue, priority) list and returns how many moved.
//
// Promotion pushes first and removes second. Two workers draining at the
// same time can both promote an entry, so delivery is at-least-once.
func (c *Client) ProcessRetryQueue(ctx context.Context) (int, error) {
	now := c.now()
	members, err := c.st.ZRangeByScore(ctx, ikeys.Retry, float64(now.Unix()), c.retryBatch)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, m := range members {
		j, derr := job.Decode([]byte(m))
		if derr != nil {
			c.log.Errorf("retry: dropping undecodable entry: err=%v", derr)
			if _, err := c.st.ZRem(ctx, ikeys.Retry, m); err != nil {
				return moved, err
			}
			continue
		}
		queue := j.Queue
		if queue == "" {
			queue = job.DefaultQueue(j.Type)
		}
		p, perr := job.ParsePriority(string(j.Priority))
		if perr != nil {
			p = job.PriorityNormal
		}
		if err := c.st.PushTail(ctx, ikeys.List(queue, p.String()), []byte(m)); err != nil {
			return moved, err
		}
		if _, err := c.st.ZRem(ctx, ikeys.Retry, m); err != nil {
			return moved, err
		}
		moved++
		c.log.Debugf("retry promoted: id=%s type=%s queue=%s attempt=%d", j.ID, j.Type, queue, j.Attempts)
	}
	return moved, nil
}

// Cleanup deletes completed records the store did not expire itself (no TTL
// and older than maxAge) and trims the failed list to the newest entries.
// It returns the number of records removed. A non-positive maxAge uses the
// completed TTL.
func (c *Client) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = c.completedTTL
	}
	removed := 0

	keys, err := c.st.Keys(ctx, ikeys.CompletedPattern)
	if err != nil {
		return 0, err
	}
	cutoff := c.now().Add(-maxAge)
	for _, key := range keys {
		ttl, err := c.st.TTL(ctx, key)
		if err != nil {
			return removed, err
		}
		if ttl != store.NoExpiry {
			continue
		}
		raw, err := c.st.Get(ctx, key)
		if err != nil {
			return removed, err
		}
		if raw == nil {
			continue
		}
		if j, derr := job.Decode(raw); derr == nil && j.CompletedAt != nil && j.CompletedAt.After(cutoff) {
			continue
		}
		n, err := c.st.Del(ctx, key)
		if err != nil {
			return removed, err
		}
		removed += int(n)
	}

	n, err := c.st.Len(ctx, ikeys.Failed)
	if err != nil {
		return removed, err
	}
	if n > c.failedCap {
		if err := c.st.TrimList(ctx, ikeys.Failed, -c.failedCap, -1); err != nil {
			return removed, err
		}
		removed += int(n - c.failedCap)
	}
	return removed, nil
}

// QueueStats holds the list lengths of one queue.
type QueueStats struct {
	Queue  string `json:"queue"`
	High   int64  `json:"high"`
	Normal int64  `json:"normal"`
	Low    int64  `json:"low"`
}

// Total returns the number of jobs waiting across all priorities.
func (q QueueStats) Total() int64 { return q.High + q.Normal + q.Low }

// Stats is a snapshot of queue sizes.
type Stats struct {
	Queues []QueueStats `json:"queues"`
	Retry  int64        `json:"retry"`
	Failed int64        `json:"failed"`
}

// Stats reports the length of every priority list of the default queues and
// of any other queue found in the store, plus the retry and failed sizes.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	names, err := c.queueNames(ctx)
	if err != nil {
		return Stats{}, err
	}
	var out Stats
	for _, name := range names {
		k := ikeys.For(name)
		qs := QueueStats{Queue: name}
		for _, f := range []struct {
			key string
			dst *int64
		}{{k.High, &qs.High}, {k.Normal, &qs.Normal}, {k.Low, &qs.Low}} {
			n, err := c.st.Len(ctx, f.key)
			if err != nil {
				return Stats{}, err
			}
			*f.dst = n
		}
		out.Queues = append(out.Queues, qs)
	}
	if out.Retry, err = c.st.ZCard(ctx, ikeys.Retry); err != nil {
		return Stats{}, err
	}
	if out.Failed, err = c.st.Len(ctx, ikeys.Failed); err != nil {
		return Stats{}, err
	}
	return out, nil
}

func (c *Client) queueNames(ctx context.Context) ([]string, error) {
	names := append([]string(nil), job.Queues...)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	keys, err := c.st.Keys(ctx, ikeys.QueuePattern)
	if err != nil {
		return nil, err
	}
	var extra []string
	for _, k := range keys {
		name := ikeys.ExtractQueueName(k)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		extra = append(extra, name)
	}
	sort.Strings(extra)
	return append(names, extra...), nil
}

// ListFailed returns up to limit dead-lettered jobs, newest first.
// A non-positive limit returns the whole list.
func (c *Client) ListFailed(ctx context.Context, limit int) ([]*job.Job, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	vals, err := c.st.Range(ctx, ikeys.Failed, start, -1)
	if err != nil {
		return nil, err
	}
	out := make([]*job.Job, 0, len(vals))
	for i := len(vals) - 1; i >= 0; i-- {
		j, err := job.Decode([]byte(vals[i]))
		if err != nil {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

// RetryFailed moves a dead-lettered job back to its original queue with its
// attempt count and error cleared. It returns ErrJobNotFound if the id is not
// in the failed list.
func (c *Client) RetryFailed(ctx context.Context, id string) error {
	vals, err := c.st.Range(ctx, ikeys.Failed, 0, -1)
	if err != nil {
		return err
	}
	for _, raw := range vals {
		j, derr := job.Decode([]byte(raw))
		if derr != nil || j.ID != id {
			continue
		}
		j.Attempts = 0
		j.LastError = ""
		j.FailedAt = nil
		queue := j.Queue
		if queue == "" {
			queue = job.DefaultQueue(j.Type)
		}
		// Push before removing: a failure in between duplicates the job
		// instead of losing it.
		if err := c.Enqueue(ctx, queue, j, j.Priority); err != nil {
			return err
		}
		n, err := c.st.ListRem(ctx, ikeys.Failed, raw)
		if err != nil {
			return fmt.Errorf("remove replayed job %s from failed list: %w", id, err)
		}
		if n == 0 {
			c.log.Warnf("failed entry already replayed elsewhere: id=%s", id)
		}
		return nil
	}
	return ErrJobNotFound
}
