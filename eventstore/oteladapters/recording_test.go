package oteladapters_test

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	"go.opentelemetry.io/otel/trace"
)

type recordedLog struct {
	severity    log.Severity
	body        string
	attrs       map[string]log.Value
	spanContext trace.SpanContext
}

// recordingLoggerProvider hands out loggers that keep every emitted record.
type recordingLoggerProvider struct {
	embedded.LoggerProvider

	mu      sync.Mutex
	records []recordedLog
}

func (p *recordingLoggerProvider) Logger(_ string, _ ...log.LoggerOption) log.Logger {
	return &recordingLogger{provider: p}
}

func (p *recordingLoggerProvider) Records() []recordedLog {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]recordedLog(nil), p.records...)
}

func (p *recordingLoggerProvider) WithBody(body string) []recordedLog {
	var matching []recordedLog
	for _, record := range p.Records() {
		if record.body == body {
			matching = append(matching, record)
		}
	}

	return matching
}

type recordingLogger struct {
	embedded.Logger

	provider *recordingLoggerProvider
}

func (l *recordingLogger) Emit(ctx context.Context, record log.Record) {
	attrs := make(map[string]log.Value)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	l.provider.mu.Lock()
	defer l.provider.mu.Unlock()

	l.provider.records = append(l.provider.records, recordedLog{
		severity:    record.Severity(),
		body:        record.Body().AsString(),
		attrs:       attrs,
		spanContext: trace.SpanContextFromContext(ctx),
	})
}

func (l *recordingLogger) Enabled(_ context.Context, _ log.EnabledParameters) bool {
	return true
}
