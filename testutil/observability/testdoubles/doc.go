// Package testdoubles provides spies for the observability interfaces of the eventstore package:
// a slog.Handler, a ContextualLogger, a MetricsCollector, and a TracingCollector that record
// every call for inspection in tests.
package testdoubles
