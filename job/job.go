// Package job defines the transport-neutral job record processed by the worker.
package job

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownType is returned when a string does not name a known job type.
var ErrUnknownType = errors.New("job: unknown type")

// ErrUnknownPriority is returned when a string does not name a known priority.
var ErrUnknownPriority = errors.New("job: unknown priority")

// Type identifies the kind of work a job carries. The worker routes on it.
type Type string

const (
	// TypeProcessing parses an inbound message.
	TypeProcessing Type = "email_processing"
	// TypeSending delivers an outbound message.
	TypeSending Type = "email_sending"
	// TypeAttachment scans a stored attachment.
	TypeAttachment Type = "attachment_processing"
	// TypeNotification fans a notification out to an account.
	TypeNotification Type = "notification"
	// TypeCleanup runs periodic housekeeping.
	TypeCleanup Type = "cleanup"
)

// AllTypes lists every job type in a stable order.
var AllTypes = []Type{TypeProcessing, TypeSending, TypeAttachment, TypeNotification, TypeCleanup}

// Default queue names, in the order a worker targeting "all" polls them.
const (
	QueueProcessing    = "email:processing"
	QueueSending       = "email:sending"
	QueueAttachments   = "email:attachments"
	QueueNotifications = "email:notifications"
	QueueCleanup       = "email:cleanup"
)

// Queues is the fixed polling order for workers running against every queue.
var Queues = []string{QueueProcessing, QueueSending, QueueAttachments, QueueNotifications, QueueCleanup}

// String returns the raw string value of the type.
func (t Type) String() string { return string(t) }

// ParseType converts a string into a Type, returning ErrUnknownType for unknown values.
func ParseType(s string) (Type, error) {
	for _, t := range AllTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrUnknownType
}

// DefaultQueue returns the queue a job of type t is enqueued into when no queue is given.
func DefaultQueue(t Type) string {
	switch t {
	case TypeProcessing:
		return QueueProcessing
	case TypeSending:
		return QueueSending
	case TypeAttachment:
		return QueueAttachments
	case TypeNotification:
		return QueueNotifications
	case TypeCleanup:
		return QueueCleanup
	default:
		return QueueProcessing
	}
}

// DefaultMaxAttempts returns the per-type attempt budget. Cleanup runs once.
func DefaultMaxAttempts(t Type) int {
	if t == TypeCleanup {
		return 1
	}
	return 3
}

// Priority orders jobs within a single queue.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Priorities lists the priorities in dequeue order.
var Priorities = []Priority{PriorityHigh, PriorityNormal, PriorityLow}

// String returns the raw string value of the priority.
func (p Priority) String() string { return string(p) }

// ParsePriority converts a string into a Priority. The empty string maps to normal.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case string(PriorityHigh):
		return PriorityHigh, nil
	case string(PriorityNormal), "":
		return PriorityNormal, nil
	case string(PriorityLow):
		return PriorityLow, nil
	default:
		return "", ErrUnknownPriority
	}
}

// Job represents a unit of work. It is serialized to JSON and stored in Redis.
type Job struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Type routes the job to a handler.
	Type Type `json:"type"`
	// Queue is the name of the queue the job was enqueued into. Retries return here.
	Queue string `json:"queue"`
	// Payload holds the type-specific fields as raw JSON.
	Payload json.RawMessage `json:"payload,omitempty"`
	// Priority is the list within Queue the job lives in.
	Priority Priority `json:"priority"`
	// QueuedAt is when the job was first enqueued.
	QueuedAt time.Time `json:"queued_at"`
	// Attempts counts failed executions so far.
	Attempts int `json:"attempts"`
	// MaxAttempts is the number of failures after which the job is dead-lettered.
	MaxAttempts int `json:"max_attempts"`
	// LastError is the error message from the last failed attempt.
	LastError string `json:"last_error,omitempty"`
	// CompletedAt is set when a handler succeeded.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// FailedAt is set when the job was moved to the failed list.
	FailedAt *time.Time `json:"failed_at,omitempty"`
	// Result is handler-provided output kept in the completed record.
	Result json.RawMessage `json:"result,omitempty"`
}

// New builds a job of type t with an encoded payload and the type's defaults.
func New(t Type, payload any) (*Job, error) {
	raw, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	return &Job{
		ID:          uuid.NewString(),
		Type:        t,
		Queue:       DefaultQueue(t),
		Payload:     raw,
		Priority:    PriorityNormal,
		MaxAttempts: DefaultMaxAttempts(t),
	}, nil
}

// Exhausted reports whether the job has used its whole attempt budget.
func (j *Job) Exhausted() bool { return j.Attempts >= j.MaxAttempts }
