package mailq

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/UniQw/mailq/job"
)

// meterName is the instrumentation scope name for mailq metrics and traces.
const meterName = "github.com/UniQw/mailq"

// Logging returns middleware that logs handler start and completion with duration.
func Logging(l Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, j *job.Job) error {
			l.Debugf("handler start: id=%s type=%s queue=%s attempt=%d", j.ID, j.Type, j.Queue, j.Attempts+1)
			start := time.Now()
			err := next(ctx, j)
			if err != nil {
				l.Warnf("handler error: id=%s type=%s dur=%s err=%v", j.ID, j.Type, time.Since(start), err)
			} else {
				l.Debugf("handler ok: id=%s type=%s dur=%s", j.ID, j.Type, time.Since(start))
			}
			return err
		}
	}
}

// Timeout returns middleware that puts a deadline on the handler context.
// Cancellation is cooperative: a handler that ignores ctx still runs to
// completion and keeps the worker busy.
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, j *job.Job) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, j)
		}
	}
}

// Metrics returns middleware that records per-job metrics using the global
// OTel MeterProvider. Without a configured provider the instruments are noops.
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
//
// Instruments:
//   - mailq.job.duration (Float64Histogram): handler time in seconds
//   - mailq.job.executions (Int64Counter): handler invocations
//
// Both carry job_type, queue and status ("ok" or "error").
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API returns noop instruments.
	duration, _ := meter.Float64Histogram(
		"mailq.job.duration",
		metric.WithDescription("Duration of job handler execution in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"mailq.job.executions",
		metric.WithDescription("Total number of job handler executions"),
		metric.WithUnit("{execution}"),
	)

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, j *job.Job) error {
			start := time.Now()
			err := next(ctx, j)
			elapsed := time.Since(start).Seconds()

			status := "ok"
			if err != nil {
				status = "error"
			}
			attrs := metric.WithAttributes(
				attribute.String("job_type", j.Type.String()),
				attribute.String("queue", j.Queue),
				attribute.String("status", status),
			)
			duration.Record(ctx, elapsed, attrs)
			executions.Add(ctx, 1, attrs)
			return err
		}
	}
}

// Tracing returns middleware that wraps each handler call in a span from the
// global TracerProvider.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(meterName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// The span is named "mailq.job.execute" and carries the job id, type, queue,
// priority and attempt.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, j *job.Job) error {
			ctx, span := tracer.Start(ctx, "mailq.job.execute",
				trace.WithAttributes(
					attribute.String("mailq.job.id", j.ID),
					attribute.String("mailq.job.type", j.Type.String()),
					attribute.String("mailq.queue", j.Queue),
					attribute.String("mailq.priority", j.Priority.String()),
					attribute.Int("mailq.attempt", j.Attempts+1),
				),
				trace.WithSpanKind(trace.SpanKindConsumer),
			)
			defer span.End()

			err := next(ctx, j)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return err
		}
	}
}
