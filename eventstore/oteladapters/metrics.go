package oteladapters

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

const (
	unitSeconds = "s"

	descriptionDuration = "eventstore operation duration"
	descriptionCounter  = "eventstore operation counter"
	descriptionValue    = "eventstore value"

	suffixTotal = "_total"
)

// MetricsCollector implements eventstore.ContextualMetricsCollector with OpenTelemetry instruments,
// which are created on first use and cached by metric name:
//   - RecordDuration records seconds into a Float64Histogram
//   - IncrementCounter adds one to an Int64Counter
//   - RecordValue adds to a Float64Counter if the name ends in "_total", else sets a Float64Gauge
type MetricsCollector struct {
	meter metric.Meter

	mu         sync.Mutex
	histograms map[string]metric.Float64Histogram
	counters   map[string]metric.Int64Counter
	sums       map[string]metric.Float64Counter
	gauges     map[string]metric.Float64Gauge
}

// NewMetricsCollector creates a collector that creates its instruments with meter.
func NewMetricsCollector(meter metric.Meter) *MetricsCollector {
	return &MetricsCollector{
		meter:      meter,
		histograms: make(map[string]metric.Float64Histogram),
		counters:   make(map[string]metric.Int64Counter),
		sums:       make(map[string]metric.Float64Counter),
		gauges:     make(map[string]metric.Float64Gauge),
	}
}

func (m *MetricsCollector) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	m.RecordDurationContext(context.Background(), name, duration, labels)
}

func (m *MetricsCollector) RecordDurationContext(ctx context.Context, name string, duration time.Duration, labels map[string]string) {
	histogram, err := instrument(m, m.histograms, name, func() (metric.Float64Histogram, error) {
		return m.meter.Float64Histogram(name, metric.WithDescription(descriptionDuration), metric.WithUnit(unitSeconds))
	})
	if err != nil {
		return
	}

	histogram.Record(ctx, duration.Seconds(), metric.WithAttributeSet(attributeSet(labels)))
}

func (m *MetricsCollector) IncrementCounter(name string, labels map[string]string) {
	m.IncrementCounterContext(context.Background(), name, labels)
}

func (m *MetricsCollector) IncrementCounterContext(ctx context.Context, name string, labels map[string]string) {
	counter, err := instrument(m, m.counters, name, func() (metric.Int64Counter, error) {
		return m.meter.Int64Counter(name, metric.WithDescription(descriptionCounter))
	})
	if err != nil {
		return
	}

	counter.Add(ctx, 1, metric.WithAttributeSet(attributeSet(labels)))
}

func (m *MetricsCollector) RecordValue(name string, value float64, labels map[string]string) {
	m.RecordValueContext(context.Background(), name, value, labels)
}

func (m *MetricsCollector) RecordValueContext(ctx context.Context, name string, value float64, labels map[string]string) {
	if strings.HasSuffix(name, suffixTotal) {
		sum, err := instrument(m, m.sums, name, func() (metric.Float64Counter, error) {
			return m.meter.Float64Counter(name, metric.WithDescription(descriptionValue))
		})
		if err != nil || value < 0 {
			return
		}

		sum.Add(ctx, value, metric.WithAttributeSet(attributeSet(labels)))

		return
	}

	gauge, err := instrument(m, m.gauges, name, func() (metric.Float64Gauge, error) {
		return m.meter.Float64Gauge(name, metric.WithDescription(descriptionValue))
	})
	if err != nil {
		return
	}

	gauge.Record(ctx, value, metric.WithAttributeSet(attributeSet(labels)))
}

// instrument returns the cached instrument of name, creating it on first use.
// Failed creations are not cached, so they are retried with the next measurement.
func instrument[I any](m *MetricsCollector, cache map[string]I, name string, create func() (I, error)) (I, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := cache[name]; ok {
		return cached, nil
	}

	created, err := create()
	if err != nil {
		return created, err
	}

	cache[name] = created

	return created, nil
}

func attributeSet(labels map[string]string) attribute.Set {
	kvs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		kvs = append(kvs, attribute.String(key, value))
	}

	return attribute.NewSet(kvs...)
}

var _ eventstore.ContextualMetricsCollector = (*MetricsCollector)(nil)
