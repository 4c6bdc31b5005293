package hl7v2

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks parsing metrics using lock-free atomic operations.
// All methods are safe for concurrent use.
type Metrics struct {
	// Parse counts
	parsesTotal  atomic.Uint64
	parsesFailed atomic.Uint64

	// Timing (stored as nanoseconds)
	parseTimeTotal atomic.Uint64
	parseTimeMin   atomic.Uint64
	parseTimeMax   atomic.Uint64

	// Segment counts
	segmentsTotal     atomic.Uint64
	segmentsRecovered atomic.Uint64

	// Issue counts by severity
	errorsTotal   atomic.Uint64
	warningsTotal atomic.Uint64

	// Per-segment counters
	segmentCounts sync.Map // map[string]*atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.parseTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordParse records a completed parse.
func (m *Metrics) RecordParse(duration time.Duration, ok bool) {
	m.parsesTotal.Add(1)
	if !ok {
		m.parsesFailed.Add(1)
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // durations measured with time.Since are non-negative
	m.parseTimeTotal.Add(ns)

	for {
		old := m.parseTimeMin.Load()
		if ns >= old || m.parseTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.parseTimeMax.Load()
		if ns <= old || m.parseTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordSegment records a decoded segment by name.
func (m *Metrics) RecordSegment(name string, recovered bool) {
	m.segmentsTotal.Add(1)
	if recovered {
		m.segmentsRecovered.Add(1)
	}
	v, _ := m.segmentCounts.LoadOrStore(name, new(atomic.Uint64))
	v.(*atomic.Uint64).Add(1)
}

// RecordIssue records an issue by severity.
func (m *Metrics) RecordIssue(severity IssueSeverity) {
	switch severity {
	case SeverityError, SeverityFatal:
		m.errorsTotal.Add(1)
	case SeverityWarning:
		m.warningsTotal.Add(1)
	}
}

// --- Query Methods ---

// ParsesTotal returns the number of parses recorded.
func (m *Metrics) ParsesTotal() uint64 {
	return m.parsesTotal.Load()
}

// ParsesFailed returns the number of parses that returned an error.
func (m *Metrics) ParsesFailed() uint64 {
	return m.parsesFailed.Load()
}

// SuccessRate returns the fraction of parses that succeeded.
func (m *Metrics) SuccessRate() float64 {
	total := m.parsesTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(total-m.parsesFailed.Load()) / float64(total)
}

// AverageParseTime returns the mean parse duration.
func (m *Metrics) AverageParseTime() time.Duration {
	total := m.parsesTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.parseTimeTotal.Load() / total) //nolint:gosec // nanoseconds within int64 range
}

// MinParseTime returns the fastest parse duration.
func (m *Metrics) MinParseTime() time.Duration {
	v := m.parseTimeMin.Load()
	if v == ^uint64(0) {
		return 0
	}
	return time.Duration(v) //nolint:gosec // nanoseconds within int64 range
}

// MaxParseTime returns the slowest parse duration.
func (m *Metrics) MaxParseTime() time.Duration {
	return time.Duration(m.parseTimeMax.Load()) //nolint:gosec // nanoseconds within int64 range
}

// SegmentsTotal returns the number of segments decoded.
func (m *Metrics) SegmentsTotal() uint64 {
	return m.segmentsTotal.Load()
}

// SegmentsRecovered returns the number of segments replaced by a catch-all.
func (m *Metrics) SegmentsRecovered() uint64 {
	return m.segmentsRecovered.Load()
}

// ErrorsTotal returns the number of error issues recorded.
func (m *Metrics) ErrorsTotal() uint64 {
	return m.errorsTotal.Load()
}

// WarningsTotal returns the number of warning issues recorded.
func (m *Metrics) WarningsTotal() uint64 {
	return m.warningsTotal.Load()
}

// SegmentCount is the number of times a segment name was decoded.
type SegmentCount struct {
	Name  string `json:"name"`
	Count uint64 `json:"count"`
}

// SegmentCounts returns per-segment counters sorted by name.
func (m *Metrics) SegmentCounts() []SegmentCount {
	var out []SegmentCount
	m.segmentCounts.Range(func(key, value any) bool {
		out = append(out, SegmentCount{Name: key.(string), Count: value.(*atomic.Uint64).Load()})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// --- Export Methods ---

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	ParsesTotal  uint64  `json:"parses_total"`
	ParsesFailed uint64  `json:"parses_failed"`
	SuccessRate  float64 `json:"success_rate"`

	AvgParseTimeNs uint64 `json:"avg_parse_time_ns"`
	MinParseTimeNs uint64 `json:"min_parse_time_ns"`
	MaxParseTimeNs uint64 `json:"max_parse_time_ns"`

	SegmentsTotal     uint64 `json:"segments_total"`
	SegmentsRecovered uint64 `json:"segments_recovered"`

	ErrorsTotal   uint64 `json:"errors_total"`
	WarningsTotal uint64 `json:"warnings_total"`

	Segments []SegmentCount `json:"segments,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:         time.Now(),
		ParsesTotal:       m.ParsesTotal(),
		ParsesFailed:      m.ParsesFailed(),
		SuccessRate:       m.SuccessRate(),
		AvgParseTimeNs:    uint64(m.AverageParseTime()), //nolint:gosec // non-negative
		MinParseTimeNs:    uint64(m.MinParseTime()),     //nolint:gosec // non-negative
		MaxParseTimeNs:    m.parseTimeMax.Load(),
		SegmentsTotal:     m.SegmentsTotal(),
		SegmentsRecovered: m.SegmentsRecovered(),
		ErrorsTotal:       m.ErrorsTotal(),
		WarningsTotal:     m.WarningsTotal(),
		Segments:          m.SegmentCounts(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.parsesTotal.Store(0)
	m.parsesFailed.Store(0)
	m.parseTimeTotal.Store(0)
	m.parseTimeMin.Store(^uint64(0))
	m.parseTimeMax.Store(0)
	m.segmentsTotal.Store(0)
	m.segmentsRecovered.Store(0)
	m.errorsTotal.Store(0)
	m.warningsTotal.Store(0)
	m.segmentCounts.Range(func(key, _ any) bool {
		m.segmentCounts.Delete(key)
		return true
	})
}
