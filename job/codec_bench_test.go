package job

import (
	"strings"
	"testing"
	"time"
)

func makeBenchJob(bodySize int) *Job {
	j, _ := New(TypeSending, SendingPayload{
		MessageID: "msg-123",
		AccountID: "acc-1",
		From:      "noreply@example.com",
		To:        []string{"user@example.com"},
		Subject:   strings.Repeat("x", bodySize),
	})
	j.QueuedAt = time.Unix(1730000000, 0).UTC()
	return j
}

func BenchmarkJob_Encode(b *testing.B) {
	b.ReportAllocs()
	j := makeBenchJob(512)
	for i := 0; i < b.N; i++ {
		if _, err := Encode(j); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkJob_Decode(b *testing.B) {
	b.ReportAllocs()
	raw, err := Encode(makeBenchJob(512))
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(raw); err != nil {
			b.Fatal(err)
		}
	}
}
