package memengine

import (
	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

// Option defines a functional option for configuring a Store.
type Option func(*config) error

type config struct {
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
	tracingCollector eventstore.TracingCollector
}

// WithLogger sets the logger for the Store.
//
// Info level: committed events, reads, failed commit conditions
// Error level: failures that fail an operation.
func WithLogger(logger eventstore.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store. It receives the same
// messages as the logger, with the operation's context for trace correlation.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(c *config) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(c *config) error {
		c.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
// Every commit and read gets a span.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(c *config) error {
		c.tracingCollector = collector
		return nil
	}
}
