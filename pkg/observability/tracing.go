package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies the pipeline's spans.
const tracerName = "github.com/KarthikeyanM3011/Hudle.ai"

// Tracer returns the shared tracer for pipeline spans. With no SDK
// configured the returned tracer is a no-op, so instrumentation is always
// safe to call.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartStage opens a span for one pipeline stage of a meeting's turn.
func StartStage(ctx context.Context, stage string, meetingID int64) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "turn."+stage, trace.WithAttributes(
		attribute.String("turn.stage", stage),
		attribute.Int64("meeting.id", meetingID),
	))
}

// EndStage closes a stage span, recording the error when the stage failed.
func EndStage(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
