package observability

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

const (
	logMsgOperation       = "eventstore operation: "
	logMsgSQLExecuted     = "executed sql for: "
	logMsgCommitted       = "events committed"
	logMsgRead            = "stream read"
	logMsgConditionNotMet = "commit condition not met"
	logMsgCommitFailed    = "commit failed"
	logMsgReadFailed      = "read failed"
	logAttrError          = "error"
	logAttrQuery          = "query"
	logAttrStreamID       = "stream_id"
	logAttrEventCount     = "event_count"
	logAttrCommitNumber   = "commit_number"
	logAttrCondition      = "condition"
	logAttrDurationMS     = "duration_ms"
)

// Observer holds the optional collaborators of an engine. The zero value observes nothing.
type Observer struct {
	Logger           eventstore.Logger
	ContextualLogger eventstore.ContextualLogger
	Metrics          eventstore.MetricsCollector
	Tracing          eventstore.TracingCollector
}

// Active reports whether o has any collaborator. An inactive Observer costs one check per operation.
func (o *Observer) Active() bool {
	return o.Logger != nil || o.ContextualLogger != nil || o.Metrics != nil || o.Tracing != nil
}

func (o *Observer) logging() bool {
	return o.Logger != nil || o.ContextualLogger != nil
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func ToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// ErrorType classifies err for metric labels and span attributes.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, eventstore.ErrConditionNotMet):
		return eventstore.ErrorTypeConditionNotMet
	case errors.Is(err, eventstore.ErrStreamFull):
		return eventstore.ErrorTypeStreamFull
	case errors.Is(err, eventstore.ErrCommitNotFound):
		return eventstore.ErrorTypeCommitNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return eventstore.ErrorTypeCanceled
	case errors.Is(err, eventstore.ErrSerializingEventFailed), errors.Is(err, eventstore.ErrDeserializingEventFailed):
		return eventstore.ErrorTypeSerialization
	case errors.Is(err, eventstore.ErrQueryingEventsFailed),
		errors.Is(err, eventstore.ErrAppendingEventFailed),
		errors.Is(err, eventstore.ErrScanningDBRowFailed):
		return eventstore.ErrorTypeDatabase
	default:
		return eventstore.ErrorTypeOther
	}
}

// LogSQL logs an executed SQL statement at debug level.
func (o *Observer) LogSQL(ctx context.Context, action string, query string, duration time.Duration) {
	if !o.logging() {
		return
	}

	args := []any{logAttrDurationMS, ToMilliseconds(duration), logAttrQuery, query}

	if o.Logger != nil {
		o.Logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// Warn logs a non-critical failure, e.g. closing rows.
func (o *Observer) Warn(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if o.Logger != nil {
		o.Logger.Warn(msg, allArgs...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.WarnContext(ctx, msg, allArgs...)
	}
}

func (o *Observer) logOperation(ctx context.Context, action string, args ...any) {
	if o.Logger != nil {
		o.Logger.Info(logMsgOperation+action, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

func (o *Observer) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if o.Logger != nil {
		o.Logger.Error(msg, allArgs...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

func (o *Observer) recordDuration(ctx context.Context, metric string, d time.Duration, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, d, labels)
		return
	}

	o.Metrics.RecordDuration(metric, d, labels)
}

func (o *Observer) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	o.Metrics.RecordValue(metric, value, labels)
}

func (o *Observer) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	o.Metrics.IncrementCounter(metric, labels)
}

func (o *Observer) finishSpan(span eventstore.SpanContext, status string, attrs map[string]string) {
	if o.Tracing == nil || span == nil {
		return
	}

	span.SetStatus(status)
	for key, value := range attrs {
		span.AddAttribute(key, value)
	}

	o.Tracing.FinishSpan(span, status, attrs)
}

func formatMilliseconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", ToMilliseconds(d))
}
