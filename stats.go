package di

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"
)

// PerformanceMonitor records resolution statistics for a [Container].
//
// Implementations must be safe for concurrent use.
// Set a custom monitor with [WithPerformanceMonitor].
type PerformanceMonitor interface {
	RecordResolution()
	RecordCacheHit()
	RecordCacheMiss()
	RecordCreation(d time.Duration)
	Snapshot() MonitorSnapshot
	Reset()
}

// MonitorSnapshot holds the raw counters of a [PerformanceMonitor].
type MonitorSnapshot struct {
	TotalResolutions  int64
	CacheHits         int64
	CacheMisses       int64
	Creations         int64
	TotalCreationTime time.Duration
}

// AvgCreationTime returns the mean time spent creating a service.
func (s MonitorSnapshot) AvgCreationTime() time.Duration {
	if s.Creations == 0 {
		return 0
	}
	return s.TotalCreationTime / time.Duration(s.Creations)
}

// NewPerformanceMonitor returns the default [PerformanceMonitor].
func NewPerformanceMonitor() PerformanceMonitor {
	return &counterMonitor{
		resolutions:  xsync.NewCounter(),
		hits:         xsync.NewCounter(),
		misses:       xsync.NewCounter(),
		creations:    xsync.NewCounter(),
		creationTime: xsync.NewCounter(),
	}
}

type counterMonitor struct {
	resolutions  *xsync.Counter
	hits         *xsync.Counter
	misses       *xsync.Counter
	creations    *xsync.Counter
	creationTime *xsync.Counter
}

func (m *counterMonitor) RecordResolution() { m.resolutions.Inc() }
func (m *counterMonitor) RecordCacheHit()   { m.hits.Inc() }
func (m *counterMonitor) RecordCacheMiss()  { m.misses.Inc() }

func (m *counterMonitor) RecordCreation(d time.Duration) {
	m.creations.Inc()
	m.creationTime.Add(int64(d))
}

func (m *counterMonitor) Snapshot() MonitorSnapshot {
	return MonitorSnapshot{
		TotalResolutions:  m.resolutions.Value(),
		CacheHits:         m.hits.Value(),
		CacheMisses:       m.misses.Value(),
		Creations:         m.creations.Value(),
		TotalCreationTime: time.Duration(m.creationTime.Value()),
	}
}

func (m *counterMonitor) Reset() {
	m.resolutions.Reset()
	m.hits.Reset()
	m.misses.Reset()
	m.creations.Reset()
	m.creationTime.Reset()
}

// noopMonitor is used when tracking is disabled.
type noopMonitor struct{}

func (noopMonitor) RecordResolution()            {}
func (noopMonitor) RecordCacheHit()              {}
func (noopMonitor) RecordCacheMiss()             {}
func (noopMonitor) RecordCreation(time.Duration) {}
func (noopMonitor) Snapshot() MonitorSnapshot    { return MonitorSnapshot{} }
func (noopMonitor) Reset()                       {}

// PerformanceStats summarizes how a [Container] has been used.
type PerformanceStats struct {
	TotalResolutions  int64   `json:"total_resolutions"`
	CacheHits         int64   `json:"cache_hits"`
	CacheMisses       int64   `json:"cache_misses"`
	AvgCreationTimeMs float64 `json:"avg_creation_time_ms"`
	CacheSize         int     `json:"cache_size"`
	CacheBytes        int64   `json:"cache_bytes"`
}

// GetPerformanceStats returns the current statistics.
//
// All counters are zero when tracking is disabled.
func (c *Container) GetPerformanceStats() PerformanceStats {
	snap := c.monitor.Snapshot()

	c.mu.Lock()
	size := c.cache.Len()
	var bytes int64
	if s, ok := c.cache.(cacheSizer); ok {
		bytes = s.Size()
	}
	c.mu.Unlock()

	return PerformanceStats{
		TotalResolutions:  snap.TotalResolutions,
		CacheHits:         snap.CacheHits,
		CacheMisses:       snap.CacheMisses,
		AvgCreationTimeMs: float64(snap.AvgCreationTime()) / float64(time.Millisecond),
		CacheSize:         size,
		CacheBytes:        bytes,
	}
}

// ResetPerformanceStats sets every counter back to zero.
func (c *Container) ResetPerformanceStats() {
	c.monitor.Reset()
}

// Collector returns a [prometheus.Collector] exporting the Container statistics.
//
// Every metric carries a container_id label.
func (c *Container) Collector() prometheus.Collector {
	labels := prometheus.Labels{"container_id": c.id}
	return &statsCollector{
		c: c,
		resolutions: prometheus.NewDesc(
			"di_resolutions_total",
			"Total number of service resolutions",
			nil, labels,
		),
		hits: prometheus.NewDesc(
			"di_cache_hits_total",
			"Total number of service cache hits",
			nil, labels,
		),
		misses: prometheus.NewDesc(
			"di_cache_misses_total",
			"Total number of service cache misses",
			nil, labels,
		),
		avgCreation: prometheus.NewDesc(
			"di_creation_duration_avg_seconds",
			"Average time spent creating a service",
			nil, labels,
		),
		cacheSize: prometheus.NewDesc(
			"di_cache_entries",
			"Number of cached services",
			nil, labels,
		),
		cacheBytes: prometheus.NewDesc(
			"di_cache_bytes",
			"Estimated memory used by cached services",
			nil, labels,
		),
	}
}

type statsCollector struct {
	c           *Container
	resolutions *prometheus.Desc
	hits        *prometheus.Desc
	misses      *prometheus.Desc
	avgCreation *prometheus.Desc
	cacheSize   *prometheus.Desc
	cacheBytes  *prometheus.Desc
}

// Describe implements prometheus.Collector
func (s *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.resolutions
	ch <- s.hits
	ch <- s.misses
	ch <- s.avgCreation
	ch <- s.cacheSize
	ch <- s.cacheBytes
}

// Collect implements prometheus.Collector
func (s *statsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := s.c.GetPerformanceStats()

	ch <- prometheus.MustNewConstMetric(s.resolutions, prometheus.CounterValue, float64(stats.TotalResolutions))
	ch <- prometheus.MustNewConstMetric(s.hits, prometheus.CounterValue, float64(stats.CacheHits))
	ch <- prometheus.MustNewConstMetric(s.misses, prometheus.CounterValue, float64(stats.CacheMisses))
	ch <- prometheus.MustNewConstMetric(s.avgCreation, prometheus.GaugeValue, stats.AvgCreationTimeMs/1000)
	ch <- prometheus.MustNewConstMetric(s.cacheSize, prometheus.GaugeValue, float64(stats.CacheSize))
	ch <- prometheus.MustNewConstMetric(s.cacheBytes, prometheus.GaugeValue, float64(stats.CacheBytes))
}
