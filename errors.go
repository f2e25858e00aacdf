package mailq

import (
	"errors"

	rtm "github.com/UniQw/mailq/internal/runtime"
)

// ErrEnqueueFailed is returned when the queue store rejects an enqueue. It wraps the store error.
var ErrEnqueueFailed = errors.New("mailq: enqueue failed")

// ErrInvalidJob is returned when a job is missing its type or carries an unknown priority.
var ErrInvalidJob = errors.New("mailq: invalid job")

// ErrJobNotFound is returned when a job with the specified ID is not found.
var ErrJobNotFound = errors.New("mailq: job not found")

// ErrUnknownJobType is recorded as the failure of jobs no handler is registered for.
var ErrUnknownJobType = rtm.ErrNoHandler
