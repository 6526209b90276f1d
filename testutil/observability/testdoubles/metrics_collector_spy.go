package testdoubles

import (
	"context"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

// MetricsCollectorSpy is a ContextualMetricsCollector that captures metrics calls for testing.
type MetricsCollectorSpy struct {
	durationRecords []SpyMetricRecord
	counterRecords  []SpyMetricRecord
	valueRecords    []SpyMetricRecord
	mu              sync.Mutex
}

// SpyMetricRecord represents one recorded metric call. Value holds the duration in seconds for duration records.
type SpyMetricRecord struct {
	Metric string
	Value  float64
	Labels map[string]string
}

// NewMetricsCollectorSpy creates a new MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

// RecordDuration implements shell.MetricsCollector.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durationRecords = append(s.durationRecords, buildSpyMetricRecord(metric, duration.Seconds(), labels))
}

// IncrementCounter implements shell.MetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counterRecords = append(s.counterRecords, buildSpyMetricRecord(metric, 1, labels))
}

// RecordValue implements shell.MetricsCollector.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.valueRecords = append(s.valueRecords, buildSpyMetricRecord(metric, value, labels))
}

// RecordDurationContext implements shell.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.RecordDuration(metric, duration, labels)
}

// IncrementCounterContext implements shell.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.IncrementCounter(metric, labels)
}

// RecordValueContext implements shell.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.RecordValue(metric, value, labels)
}

// HasDurationRecord checks if a duration record exists for the metric that carries all the given labels.
func (s *MetricsCollectorSpy) HasDurationRecord(metric string, labels map[string]string) bool {
	return s.CountDurationRecords(metric, labels) > 0
}

// HasCounterRecord checks if a counter record exists for the metric that carries all the given labels.
func (s *MetricsCollectorSpy) HasCounterRecord(metric string, labels map[string]string) bool {
	return s.CountCounterRecords(metric, labels) > 0
}

// CountDurationRecords counts the duration records of the metric that carry all the given labels.
func (s *MetricsCollectorSpy) CountDurationRecords(metric string, labels map[string]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return countMatching(s.durationRecords, metric, labels)
}

// CountCounterRecords counts the counter records of the metric that carry all the given labels.
func (s *MetricsCollectorSpy) CountCounterRecords(metric string, labels map[string]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return countMatching(s.counterRecords, metric, labels)
}

// ValueRecords returns a copy of the value records of the metric.
func (s *MetricsCollectorSpy) ValueRecords(metric string) []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpyMetricRecord, 0)
	for _, record := range s.valueRecords {
		if record.Metric == metric {
			records = append(records, record)
		}
	}

	return records
}

// Reset clears all captured metric records.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durationRecords = nil
	s.counterRecords = nil
	s.valueRecords = nil
}

func buildSpyMetricRecord(metric string, value float64, labels map[string]string) SpyMetricRecord {
	return SpyMetricRecord{
		Metric: metric,
		Value:  value,
		Labels: copyLabels(labels),
	}
}

func countMatching(records []SpyMetricRecord, metric string, labels map[string]string) int {
	count := 0

	for _, record := range records {
		if record.Metric == metric && containsLabels(record.Labels, labels) {
			count++
		}
	}

	return count
}

func containsLabels(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}

	return true
}

func copyLabels(labels map[string]string) map[string]string {
	labelsCopy := make(map[string]string, len(labels))
	for k, v := range labels {
		labelsCopy[k] = v
	}

	return labelsCopy
}

var _ shell.ContextualMetricsCollector = (*MetricsCollectorSpy)(nil)
