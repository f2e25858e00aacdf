package mailq

import (
	"time"

	"github.com/UniQw/mailq/job"
)

// Defaults for the queue service.
const (
	DefaultBaseDelay    = 60 * time.Second
	DefaultMaxDelay     = time.Hour
	DefaultCompletedTTL = 24 * time.Hour
	DefaultFailedCap    = 1000
	DefaultRetryBatch   = 100
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for queue events.
func WithLogger(l Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBaseDelay sets the first step of the retry backoff. A failed job waits
// base * 2^attempts before it is promoted again.
func WithBaseDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.backoff.Base = d }
}

// WithMaxDelay caps the retry backoff.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.backoff.Max = d }
}

// WithCompletedTTL sets how long completed records are kept.
func WithCompletedTTL(d time.Duration) ClientOption {
	return func(c *Client) { c.completedTTL = d }
}

// WithFailedCap sets how many entries the failed list keeps after Cleanup.
func WithFailedCap(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.failedCap = int64(n)
		}
	}
}

// WithRetryBatch sets how many due retries ProcessRetryQueue promotes per call.
func WithRetryBatch(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.retryBatch = int64(n)
		}
	}
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

type options struct {
	id          string
	queue       string
	priority    job.Priority
	maxAttempts int
}

// Option configures a job built by EnqueueJob.
type Option func(*options)

// JobID sets a custom ID for the job. If not provided, a random UUID will be generated.
func JobID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// Queue overrides the job type's default queue.
func Queue(name string) Option {
	return func(o *options) {
		o.queue = name
	}
}

// WithPriority sets the priority list the job is pushed to. Default is normal.
func WithPriority(p job.Priority) Option {
	return func(o *options) {
		o.priority = p
	}
}

// MaxAttempts overrides the job type's default attempt budget.
func MaxAttempts(n int) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}
