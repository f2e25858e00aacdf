package mailq

import (
	"context"

	"github.com/UniQw/mailq/internal/hctx"
	"github.com/UniQw/mailq/job"
)

// SetResult encodes v as JSON and attaches it to the job's completed record.
// It is safe to call multiple times; last wins.
// It is a no-op if the context is not provided by the worker.
func SetResult(ctx context.Context, v any) error {
	st, ok := hctx.From(ctx)
	if !ok {
		return nil
	}
	b, err := job.EncodePayload(v)
	if err != nil {
		return err
	}
	st.Result = b
	return nil
}

// SetResultBytes attaches raw JSON as the handler result without encoding.
// It is a no-op if the context is not provided by the worker.
func SetResultBytes(ctx context.Context, b []byte) {
	st, ok := hctx.From(ctx)
	if !ok {
		return
	}
	st.Result = b
}
