package mailq

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLogger_FormatsAndFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	l.Debugf("hidden %d", 1)
	l.Infof("enqueued: id=%s", "a")
	l.Errorf("boom: %v", "x")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `msg="enqueued: id=a"`)
	assert.Contains(t, out, "level=ERROR")
}

func TestNewSlogLogger_NilUsesDefault(t *testing.T) {
	assert.NotNil(t, NewSlogLogger(nil))
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debugf("x")
	l.Infof("x")
	l.Warnf("x")
	l.Errorf("x")
}
