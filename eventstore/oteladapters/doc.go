// Package oteladapters implements the eventstore observability interfaces with OpenTelemetry.
//
// Engines accept the adapters through their options, e.g. for the in-memory engine:
//
//	store, err := memengine.NewStore[UserID](
//		serialization,
//		memengine.WithContextualLogger(oteladapters.NewSlogBridgeLogger("eventstore")),
//		memengine.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter("eventstore"))),
//		memengine.WithTracing(oteladapters.NewTracingCollector(otel.Tracer("eventstore"))),
//	)
//
// All adapters are safe for concurrent use.
package oteladapters
