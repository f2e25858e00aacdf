package keys

// Package keys centralizes Redis key construction.
// It is kept in internal to avoid leaking key formats to public API.

import "strings"

const prefix = "mailq:"

// Retry is the global ZSET of jobs waiting for their backoff to elapse.
// Members are the raw job JSON; scores are execute-at timestamps in seconds.
const Retry = prefix + "retry"

// Failed is the global, size-capped dead-letter LIST. Newest entries are at the tail.
const Failed = prefix + "failed"

// CompletedPattern matches every completed record key.
const CompletedPattern = prefix + "completed:*"

// QueuePattern matches every priority list of every queue.
const QueuePattern = prefix + "{*}:*"

// Priorities lists the per-queue list suffixes in polling order.
var Priorities = []string{"high", "normal", "low"}

// List returns the priority list key for a queue, e.g. "mailq:{email:sending}:high".
func List(q, priority string) string { return prefix + "{" + q + "}:" + priority }

// Completed returns the key of the completed record for a job id.
func Completed(id string) string { return prefix + "completed:" + id }

// Queue holds the precomputed priority list keys for a queue name.
type Queue struct {
	Name   string
	High   string
	Normal string
	Low    string
}

// For returns a set of precomputed keys for the provided queue.
func For(q string) Queue {
	p := prefix + "{" + q + "}:"
	return Queue{
		Name:   q,
		High:   p + "high",
		Normal: p + "normal",
		Low:    p + "low",
	}
}

// Ordered returns the list keys in polling order: high, normal, low.
func (q Queue) Ordered() []string { return []string{q.High, q.Normal, q.Low} }

// ExtractQueueName parses a queue name from a raw list key (e.g. "mailq:{email:sending}:high").
// It returns an empty string if the key is not a priority list key.
func ExtractQueueName(key string) string {
	if !strings.HasPrefix(key, prefix+"{") {
		return ""
	}
	end := strings.LastIndex(key, "}:")
	start := len(prefix) + 1
	if end <= start {
		return ""
	}
	suffix := key[end+2:]
	for _, p := range Priorities {
		if suffix == p {
			return key[start:end]
		}
	}
	return ""
}
