package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys_Builders(t *testing.T) {
	assert.Equal(t, "mailq:{email:sending}:high", List("email:sending", "high"))
	assert.Equal(t, "mailq:completed:abc", Completed("abc"))
	assert.Equal(t, "mailq:retry", Retry)
	assert.Equal(t, "mailq:failed", Failed)
}

func TestKeys_For(t *testing.T) {
	q := For("email:cleanup")
	assert.Equal(t, "email:cleanup", q.Name)
	assert.Equal(t, "mailq:{email:cleanup}:high", q.High)
	assert.Equal(t, "mailq:{email:cleanup}:normal", q.Normal)
	assert.Equal(t, "mailq:{email:cleanup}:low", q.Low)
	assert.Equal(t, []string{q.High, q.Normal, q.Low}, q.Ordered())
}

func TestKeys_ExtractQueueName(t *testing.T) {
	cases := map[string]string{
		"mailq:{email:sending}:high":  "email:sending",
		"mailq:{default}:low":         "default",
		"mailq:{a}:b}:normal":         "a}:b",
		"mailq:{email:sending}:other": "",
		"mailq:{}:high":               "",
		"mailq:retry":                 "",
		"mailq:completed:x":           "",
		"other:{q}:high":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractQueueName(in), in)
	}
}
