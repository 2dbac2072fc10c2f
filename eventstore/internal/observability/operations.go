package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

// CommitObservation tracks one commit from start to outcome.
// A nil CommitObservation observes nothing, its methods are safe to call.
type CommitObservation struct {
	o          *Observer
	ctx        context.Context
	span       eventstore.SpanContext
	start      time.Time
	streamID   string
	eventCount int
	condition  eventstore.Condition
}

// StartCommit opens the span of a commit. The returned context carries the span.
// It returns a nil observation if o has no collaborators.
func (o *Observer) StartCommit(
	ctx context.Context,
	streamID string,
	eventCount int,
	condition eventstore.Condition,
) (*CommitObservation, context.Context) {

	if !o.Active() {
		return nil, ctx
	}

	var span eventstore.SpanContext
	if o.Tracing != nil {
		ctx, span = o.Tracing.StartSpan(ctx, eventstore.SpanNameCommit, map[string]string{
			eventstore.LabelOperation:     eventstore.OperationCommit,
			eventstore.SpanAttrStreamID:   streamID,
			eventstore.SpanAttrEventCount: strconv.Itoa(eventCount),
			eventstore.SpanAttrCondition:  condition.String(),
		})
	}

	return &CommitObservation{
		o:          o,
		ctx:        ctx,
		span:       span,
		start:      time.Now(),
		streamID:   streamID,
		eventCount: eventCount,
		condition:  condition,
	}, ctx
}

// Succeeded records a commit whose first event was assigned commitNumber.
func (c *CommitObservation) Succeeded(commitNumber eventstore.CommitNumber) {
	if c == nil {
		return
	}

	duration := time.Since(c.start)

	if c.o.Metrics != nil {
		labels := map[string]string{eventstore.LabelOperation: eventstore.OperationCommit, eventstore.LabelStatus: eventstore.StatusSuccess}
		c.o.recordDuration(c.ctx, eventstore.MetricCommitDuration, duration, labels)
		c.o.recordValue(c.ctx, eventstore.MetricEventsCommitted, float64(c.eventCount), labels)
	}

	if c.o.logging() {
		c.o.logOperation(
			c.ctx,
			logMsgCommitted,
			logAttrStreamID, c.streamID,
			logAttrEventCount, c.eventCount,
			logAttrCommitNumber, commitNumber,
			logAttrDurationMS, ToMilliseconds(duration),
		)
	}

	if c.span != nil {
		c.o.finishSpan(c.span, eventstore.StatusSuccess, map[string]string{
			eventstore.SpanAttrCommitNumber: strconv.FormatUint(uint64(commitNumber), 10),
			eventstore.SpanAttrDurationMS:   formatMilliseconds(duration),
		})
	}
}

// Failed records a failed commit. ConditionNotMet is an expected outcome and logged at info level.
func (c *CommitObservation) Failed(err error) {
	if c == nil {
		return
	}

	duration := time.Since(c.start)
	errorType := ErrorType(err)
	conditionNotMet := errorType == eventstore.ErrorTypeConditionNotMet

	if c.o.Metrics != nil {
		c.o.recordDuration(c.ctx, eventstore.MetricCommitDuration, duration, map[string]string{
			eventstore.LabelOperation: eventstore.OperationCommit,
			eventstore.LabelStatus:    eventstore.StatusError,
		})

		if conditionNotMet {
			c.o.incrementCounter(c.ctx, eventstore.MetricConditionNotMet, map[string]string{eventstore.LabelOperation: eventstore.OperationCommit})
		} else {
			c.o.incrementCounter(c.ctx, eventstore.MetricErrors, map[string]string{
				eventstore.LabelOperation: eventstore.OperationCommit,
				eventstore.LabelErrorType: errorType,
			})
		}
	}

	if c.o.logging() {
		if conditionNotMet {
			c.o.logOperation(c.ctx, logMsgConditionNotMet, logAttrStreamID, c.streamID, logAttrCondition, c.condition.String())
		} else {
			c.o.logError(c.ctx, logMsgCommitFailed, err, logAttrStreamID, c.streamID, logAttrEventCount, c.eventCount)
		}
	}

	if c.span != nil {
		c.o.finishSpan(c.span, eventstore.StatusError, map[string]string{
			eventstore.LabelErrorType:     errorType,
			eventstore.SpanAttrDurationMS: formatMilliseconds(duration),
		})
	}
}

// ReadObservation tracks one read from start to outcome.
// A nil ReadObservation observes nothing.
type ReadObservation struct {
	o        *Observer
	ctx      context.Context
	span     eventstore.SpanContext
	start    time.Time
	streamID string
}

// StartRead opens the span of a read. The returned context carries the span.
// It returns a nil observation if o has no collaborators.
func (o *Observer) StartRead(
	ctx context.Context,
	streamID string,
	options eventstore.ReadOptions,
) (*ReadObservation, context.Context) {

	if !o.Active() {
		return nil, ctx
	}

	var span eventstore.SpanContext
	if o.Tracing != nil {
		ctx, span = o.Tracing.StartSpan(ctx, eventstore.SpanNameRead, map[string]string{
			eventstore.LabelOperation:    eventstore.OperationRead,
			eventstore.SpanAttrStreamID:  streamID,
			eventstore.SpanAttrPosition:  options.Position.String(),
			eventstore.SpanAttrDirection: options.Direction.String(),
		})
	}

	return &ReadObservation{o: o, ctx: ctx, span: span, start: time.Now(), streamID: streamID}, ctx
}

// Succeeded records a read that selected eventCount events.
func (r *ReadObservation) Succeeded(eventCount int) {
	if r == nil {
		return
	}

	duration := time.Since(r.start)

	if r.o.Metrics != nil {
		labels := map[string]string{eventstore.LabelOperation: eventstore.OperationRead, eventstore.LabelStatus: eventstore.StatusSuccess}
		r.o.recordDuration(r.ctx, eventstore.MetricReadDuration, duration, labels)
		r.o.recordValue(r.ctx, eventstore.MetricEventsRead, float64(eventCount), labels)
	}

	if r.o.logging() {
		r.o.logOperation(
			r.ctx,
			logMsgRead,
			logAttrStreamID, r.streamID,
			logAttrEventCount, eventCount,
			logAttrDurationMS, ToMilliseconds(duration),
		)
	}

	if r.span != nil {
		r.o.finishSpan(r.span, eventstore.StatusSuccess, map[string]string{
			eventstore.SpanAttrEventCount: strconv.Itoa(eventCount),
			eventstore.SpanAttrDurationMS: formatMilliseconds(duration),
		})
	}
}

// Failed records a failed read. CommitNotFound is a caller error and logged at info level.
func (r *ReadObservation) Failed(err error) {
	if r == nil {
		return
	}

	duration := time.Since(r.start)
	errorType := ErrorType(err)

	if r.o.Metrics != nil {
		r.o.recordDuration(r.ctx, eventstore.MetricReadDuration, duration, map[string]string{
			eventstore.LabelOperation: eventstore.OperationRead,
			eventstore.LabelStatus:    eventstore.StatusError,
		})
		r.o.incrementCounter(r.ctx, eventstore.MetricErrors, map[string]string{
			eventstore.LabelOperation: eventstore.OperationRead,
			eventstore.LabelErrorType: errorType,
		})
	}

	if r.o.logging() {
		if errorType == eventstore.ErrorTypeCommitNotFound {
			r.o.logOperation(r.ctx, logMsgReadFailed, logAttrStreamID, r.streamID, logAttrError, err.Error())
		} else {
			r.o.logError(r.ctx, logMsgReadFailed, err, logAttrStreamID, r.streamID)
		}
	}

	if r.span != nil {
		r.o.finishSpan(r.span, eventstore.StatusError, map[string]string{
			eventstore.LabelErrorType:     errorType,
			eventstore.SpanAttrDurationMS: formatMilliseconds(duration),
		})
	}
}
