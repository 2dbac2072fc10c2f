package eventstore

import (
	"context"
	"time"
)

// Metric, span, and attribute names emitted by the engines.
const (
	MetricCommitDuration    = "eventstore_commit_duration_seconds"
	MetricReadDuration      = "eventstore_read_duration_seconds"
	MetricEventsCommitted   = "eventstore_events_committed_total"
	MetricEventsRead        = "eventstore_events_read_total"
	MetricConditionNotMet   = "eventstore_condition_not_met_total"
	MetricErrors            = "eventstore_errors_total"
	MetricRetries           = "eventstore_retries_total"
	MetricRetryDelay        = "eventstore_retry_delay_seconds"
	MetricMaxRetriesReached = "eventstore_max_retries_reached_total"

	SpanNameCommit = "eventstore.commit"
	SpanNameRead   = "eventstore.read"

	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelAttempt   = "attempt_number"

	SpanAttrStreamID     = "stream_id"
	SpanAttrEventCount   = "event_count"
	SpanAttrCommitNumber = "commit_number"
	SpanAttrCondition    = "condition"
	SpanAttrPosition     = "position"
	SpanAttrDirection    = "direction"
	SpanAttrDurationMS   = "duration_ms"

	OperationCommit = "commit"
	OperationRead   = "read"

	StatusSuccess = "success"
	StatusError   = "error"

	ErrorTypeConditionNotMet = "condition_not_met"
	ErrorTypeStreamFull      = "stream_full"
	ErrorTypeCommitNotFound  = "commit_not_found"
	ErrorTypeCanceled        = "context_canceled"
	ErrorTypeSerialization   = "serialization"
	ErrorTypeDatabase        = "database"
	ErrorTypeOther           = "other"
)

// Logger is satisfied by *slog.Logger and most structured loggers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger is Logger with context correlation, e.g. trace and span IDs.
// *slog.Logger satisfies it too.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector receives durations, counters, and values from the engines.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
// Engines prefer them when the configured collector implements this interface.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector starts and finishes spans around commits and reads.
// It is dependency-free, see oteladapters for an OpenTelemetry implementation.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}
