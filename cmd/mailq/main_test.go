package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/UniQw/mailq"
	mrd "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, addr string, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCmd()
	var out, logs bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(append([]string{"--redis-addr", addr, "--log-level", "error"}, args...))
	err := execute(root, a)
	return out.String(), err
}

func TestCLI_EnqueueWorkStats(t *testing.T) {
	s := mrd.RunT(t)

	out, err := run(t, s.Addr(), "enqueue", "email_sending",
		`{"message_id":"m1","from":"me@example.com","to":["a@example.com"]}`, "--priority", "high", "--id", "send-1")
	require.NoError(t, err)
	assert.Equal(t, "send-1\temail:sending\thigh\n", out)

	out, err = run(t, s.Addr(), "stats", "--json")
	require.NoError(t, err)
	var st mailq.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	for _, q := range st.Queues {
		if q.Queue == "email:sending" {
			assert.Equal(t, int64(1), q.High)
		}
	}

	_, err = run(t, s.Addr(), "worker", "email:sending", "--max-jobs", "1", "--sleep", "0")
	require.NoError(t, err)
	assert.True(t, s.Exists("mailq:completed:send-1"))

	out, err = run(t, s.Addr(), "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "QUEUE")
	assert.Contains(t, out, "email:cleanup")
}

func TestCLI_FailedListAndRetry(t *testing.T) {
	s := mrd.RunT(t)

	_, err := run(t, s.Addr(), "enqueue", "notification", `{"event":"new_mail"}`, "--max-attempts", "1", "--id", "bad-1")
	require.NoError(t, err)
	_, err = run(t, s.Addr(), "worker", "--max-jobs", "1", "--sleep", "0")
	require.NoError(t, err)

	out, err := run(t, s.Addr(), "failed", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "bad-1")
	assert.Contains(t, out, "missing required field")

	out, err = run(t, s.Addr(), "failed", "retry", "bad-1")
	require.NoError(t, err)
	assert.Equal(t, "requeued bad-1\n", out)

	_, err = run(t, s.Addr(), "failed", "retry", "bad-1")
	require.ErrorIs(t, err, mailq.ErrJobNotFound)

	out, err = run(t, s.Addr(), "cleanup")
	require.NoError(t, err)
	assert.Equal(t, "removed 0\n", out)
}

func TestCLI_CleanupJobRunsHousekeeping(t *testing.T) {
	s := mrd.RunT(t)
	require.NoError(t, s.Set("mailq:completed:stale", `{"id":"stale","type":"email_sending","completed_at":"2020-01-01T00:00:00Z"}`))

	_, err := run(t, s.Addr(), "enqueue", "cleanup", `{"task":"queue","older_than":3600000000000}`, "--id", "c-1")
	require.NoError(t, err)
	_, err = run(t, s.Addr(), "worker", "email:cleanup", "--max-jobs", "1", "--sleep", "0")
	require.NoError(t, err)

	assert.False(t, s.Exists("mailq:completed:stale"))
	raw, err := s.Get("mailq:completed:c-1")
	require.NoError(t, err)
	assert.True(t, strings.Contains(raw, `"removed":1`), raw)
}

func TestCLI_InvalidInput(t *testing.T) {
	s := mrd.RunT(t)

	_, err := run(t, s.Addr(), "enqueue", "fax", `{}`)
	require.Error(t, err)
	_, err = run(t, s.Addr(), "enqueue", "email_sending", `{not json`)
	require.Error(t, err)
	_, err = run(t, s.Addr(), "enqueue", "email_sending", `{}`, "--priority", "urgent")
	require.Error(t, err)
	_, err = run(t, s.Addr(), "stats", "--log-format", "xml")
	require.Error(t, err)
	_, err = run(t, s.Addr(), "schedule", "--cleanup", "sometimes")
	require.Error(t, err)
}

func TestCLI_WorkerExitsWithErrorWhenStoreIsDown(t *testing.T) {
	s := mrd.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := run(t, addr, "worker", "--timeout", "1", "--sleep", "0.01")
	require.Error(t, err)
}

func TestCLI_ClosesStoreOnCommandError(t *testing.T) {
	s := mrd.RunT(t)

	for _, args := range [][]string{
		{"enqueue", "fax", `{}`},
		{"failed", "retry", "missing"},
		{"stats"},
	} {
		root, a := newRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"--redis-addr", s.Addr()}, args...))
		_ = execute(root, a)

		require.NotNil(t, a.rdb, args)
		require.ErrorIs(t, a.rdb.Ping(context.Background()).Err(), redis.ErrClosed, args)
	}
}

func TestCleanupInterval(t *testing.T) {
	assert.Equal(t, -1, cleanupInterval(0), "0 disables cleanup")
	assert.Equal(t, -1, cleanupInterval(-5))
	assert.Equal(t, 100, cleanupInterval(100))
}
