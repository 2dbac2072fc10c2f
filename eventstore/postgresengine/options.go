package postgresengine

import (
	"errors"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

// ErrNegativeUnconditionalRetries is returned when WithUnconditionalRetries gets a negative count.
var ErrNegativeUnconditionalRetries = errors.New("unconditional retries must not be negative")

const (
	defaultEventTableName       = "events"
	defaultUnconditionalRetries = 100
)

// Option defines a functional option for configuring a Store.
type Option func(*config) error

type config struct {
	tableName            string
	unconditionalRetries int
	logger               eventstore.Logger
	contextualLogger     eventstore.ContextualLogger
	metricsCollector     eventstore.MetricsCollector
	tracingCollector     eventstore.TracingCollector
}

func defaultConfig() config {
	return config{
		tableName:            defaultEventTableName,
		unconditionalRetries: defaultUnconditionalRetries,
	}
}

// WithTableName sets the name of the events table.
func WithTableName(tableName string) Option {
	return func(c *config) error {
		if tableName == "" {
			return eventstore.ErrEmptyEventsTableName
		}

		c.tableName = tableName

		return nil
	}
}

// WithUnconditionalRetries sets how often a commit without a condition is retried when a concurrent
// commit took its commit number. Conditional commits are never retried, they fail with ConditionNotMet.
func WithUnconditionalRetries(retries int) Option {
	return func(c *config) error {
		if retries < 0 {
			return ErrNegativeUnconditionalRetries
		}

		c.unconditionalRetries = retries

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Event counts, durations, failed commit conditions (production-safe)
// Warn level: Non-critical issues like cleanup failures and unconditional retries
// Error level: Critical failures that cause operation failures.
func WithLogger(logger eventstore.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// It receives the same messages as the logger, with the context of the operation,
// which enables trace correlation when tracing is enabled.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(c *config) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// It receives commit/read durations, event counts, failed commit conditions, and database errors.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(c *config) error {
		c.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
// Every commit and read gets a span with the stream ID and the outcome.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(c *config) error {
		c.tracingCollector = collector
		return nil
	}
}
