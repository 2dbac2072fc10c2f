package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/oteladapters"
)

func newMetricsCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("eventstore")), reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	require.FailNow(t, "metric not collected", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// setup
	collector, reader := newMetricsCollector()
	labels := map[string]string{eventstore.LabelOperation: eventstore.OperationCommit, eventstore.LabelStatus: eventstore.StatusSuccess}

	// act
	collector.RecordDuration(eventstore.MetricCommitDuration, 250*time.Millisecond, labels)
	collector.RecordDurationContext(context.Background(), eventstore.MetricCommitDuration, 750*time.Millisecond, labels)

	// assert
	m := collectMetric(t, reader, eventstore.MetricCommitDuration)
	assert.Equal(t, "s", m.Unit)

	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(2), histogram.DataPoints[0].Count)
	assert.InDelta(t, 1.0, histogram.DataPoints[0].Sum, 0.0001)

	operation, _ := histogram.DataPoints[0].Attributes.Value(attribute.Key(eventstore.LabelOperation))
	assert.Equal(t, eventstore.OperationCommit, operation.AsString())
}

func Test_MetricsCollector_IncrementCounter_SeparatesLabelSets(t *testing.T) {
	// setup
	collector, reader := newMetricsCollector()
	commitLabels := map[string]string{eventstore.LabelOperation: eventstore.OperationCommit}
	readLabels := map[string]string{eventstore.LabelOperation: eventstore.OperationRead}

	// act
	collector.IncrementCounter(eventstore.MetricErrors, commitLabels)
	collector.IncrementCounterContext(context.Background(), eventstore.MetricErrors, commitLabels)
	collector.IncrementCounter(eventstore.MetricErrors, readLabels)

	// assert
	sum, ok := collectMetric(t, reader, eventstore.MetricErrors).Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.True(t, sum.IsMonotonic)
	require.Len(t, sum.DataPoints, 2)

	byOperation := make(map[string]int64)
	for _, point := range sum.DataPoints {
		operation, _ := point.Attributes.Value(attribute.Key(eventstore.LabelOperation))
		byOperation[operation.AsString()] = point.Value
	}

	assert.Equal(t, map[string]int64{eventstore.OperationCommit: 2, eventstore.OperationRead: 1}, byOperation)
}

func Test_MetricsCollector_RecordValue_When_NameIsATotal(t *testing.T) {
	// setup
	collector, reader := newMetricsCollector()

	// act
	collector.RecordValue(eventstore.MetricEventsCommitted, 2, nil)
	collector.RecordValueContext(context.Background(), eventstore.MetricEventsCommitted, 3, nil)
	collector.RecordValue(eventstore.MetricEventsCommitted, -1, nil)

	// assert
	sum, ok := collectMetric(t, reader, eventstore.MetricEventsCommitted).Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.InDelta(t, 5.0, sum.DataPoints[0].Value, 0.0001)
}

func Test_MetricsCollector_RecordValue_When_NameIsAGauge(t *testing.T) {
	// setup
	collector, reader := newMetricsCollector()

	// act
	collector.RecordValue("eventstore_streams", 4, nil)
	collector.RecordValue("eventstore_streams", 3, nil)

	// assert
	gauge, ok := collectMetric(t, reader, "eventstore_streams").Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 3.0, gauge.DataPoints[0].Value, 0.0001)
}

func Test_MetricsCollector_IsSafeForConcurrentUse(t *testing.T) {
	// setup
	collector, reader := newMetricsCollector()
	const writers = 20

	// act
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter(eventstore.MetricRetries, nil)
		}()
	}
	wg.Wait()

	// assert
	sum, ok := collectMetric(t, reader, eventstore.MetricRetries).Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(writers), sum.DataPoints[0].Value)
}
