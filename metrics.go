package quantkit

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    sweepCounter    prometheus.Counter
//	    sweepHistogram  prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordSweep(layer string, duration time.Duration, err error) {
//	    p.sweepCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordSweep is called after each per-layer sensitivity sweep.
	// duration is the total time taken, err is nil if successful.
	RecordSweep(layer string, duration time.Duration, err error)

	// RecordClustering is called after each per-layer weight clustering run.
	RecordClustering(layer string, duration time.Duration, err error)

	// RecordExport is called after each artifact export.
	// bytes is the artifact size; for multi-file exports it is the total.
	RecordExport(artifact string, bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSweep(string, time.Duration, error)       {}
func (NoopMetricsCollector) RecordClustering(string, time.Duration, error)  {}
func (NoopMetricsCollector) RecordExport(string, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SweepCount       atomic.Int64
	SweepErrors      atomic.Int64
	SweepTotalNanos  atomic.Int64
	ClusterCount     atomic.Int64
	ClusterErrors    atomic.Int64
	ExportCount      atomic.Int64
	ExportErrors     atomic.Int64
	ExportTotalBytes atomic.Int64
}

// RecordSweep implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSweep(layer string, duration time.Duration, err error) {
	b.SweepCount.Add(1)
	b.SweepTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SweepErrors.Add(1)
	}
}

// RecordClustering implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClustering(layer string, duration time.Duration, err error) {
	b.ClusterCount.Add(1)
	if err != nil {
		b.ClusterErrors.Add(1)
	}
}

// RecordExport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExport(artifact string, bytes int, duration time.Duration, err error) {
	b.ExportCount.Add(1)
	b.ExportTotalBytes.Add(int64(bytes))
	if err != nil {
		b.ExportErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SweepCount:       b.SweepCount.Load(),
		SweepErrors:      b.SweepErrors.Load(),
		SweepAvgNanos:    b.getAvgSweepNanos(),
		ClusterCount:     b.ClusterCount.Load(),
		ClusterErrors:    b.ClusterErrors.Load(),
		ExportCount:      b.ExportCount.Load(),
		ExportErrors:     b.ExportErrors.Load(),
		ExportTotalBytes: b.ExportTotalBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSweepNanos() int64 {
	count := b.SweepCount.Load()
	if count == 0 {
		return 0
	}
	return b.SweepTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SweepCount       int64
	SweepErrors      int64
	SweepAvgNanos    int64
	ClusterCount     int64
	ClusterErrors    int64
	ExportCount      int64
	ExportErrors     int64
	ExportTotalBytes int64
}
