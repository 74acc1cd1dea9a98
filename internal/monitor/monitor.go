// Package monitor aggregates request timings into performance metrics.
package monitor

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// Thresholds controls when warnings are logged.
type Thresholds struct {
	SlowRequest   time.Duration
	ErrorRate     float64
	MinThroughput float64
	// MinSamples suppresses rate warnings until this many requests were seen.
	MinSamples int64
}

// DefaultThresholds returns the standard warning thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SlowRequest:   constants.SlowRequestThreshold,
		ErrorRate:     constants.ErrorRateThreshold,
		MinThroughput: constants.MinThroughputThreshold,
		MinSamples:    constants.MinSamplesForRateWarnings,
	}
}

type endpointCounters struct {
	requests int64
	errors   int64
	total    time.Duration
}

// Monitor records one Timing per completed call. All methods are safe for
// concurrent use; aggregates are updated in O(1) and percentiles are computed
// from a fixed-size ring of recent durations when a snapshot is taken.
type Monitor struct {
	mu sync.Mutex

	logger     autotask.Logger
	thresholds Thresholds
	collectors *Collectors
	now        func() time.Time

	since        time.Time
	total        int64
	success      int64
	failures     int64
	totalLatency time.Duration
	minLatency   time.Duration
	maxLatency   time.Duration
	byKind       map[autotask.ErrorKind]int64
	endpoints    map[string]*endpointCounters

	ring     []time.Duration
	ringNext int
	ringFull bool

	warnedErrorRate  bool
	warnedThroughput bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithThresholds overrides the warning thresholds.
func WithThresholds(thresholds Thresholds) Option {
	return func(m *Monitor) {
		m.thresholds = thresholds
	}
}

// WithCollectors mirrors every sample into Prometheus collectors.
func WithCollectors(collectors *Collectors) Option {
	return func(m *Monitor) {
		m.collectors = collectors
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// New creates a monitor keeping the last sampleSize durations.
func New(sampleSize int, logger autotask.Logger, opts ...Option) *Monitor {
	if sampleSize <= 0 {
		sampleSize = constants.DefaultSampleSize
	}

	if logger == nil {
		logger = autotask.NoopLogger{}
	}

	monitor := &Monitor{
		logger:     logger,
		thresholds: DefaultThresholds(),
		now:        time.Now,
		ring:       make([]time.Duration, sampleSize),
	}

	for _, opt := range opts {
		opt(monitor)
	}

	monitor.resetLocked()

	return monitor
}

// RecordRequest adds one completed call.
func (m *Monitor) RecordRequest(timing autotask.Timing) {
	m.mu.Lock()

	m.total++
	m.totalLatency += timing.Duration

	if m.total == 1 || timing.Duration < m.minLatency {
		m.minLatency = timing.Duration
	}

	if timing.Duration > m.maxLatency {
		m.maxLatency = timing.Duration
	}

	counters, ok := m.endpoints[timing.Endpoint]
	if !ok {
		counters = &endpointCounters{}
		m.endpoints[timing.Endpoint] = counters
	}

	counters.requests++
	counters.total += timing.Duration

	if timing.Success {
		m.success++
	} else {
		m.failures++
		counters.errors++
		m.byKind[timing.Kind]++
	}

	m.ring[m.ringNext] = timing.Duration
	m.ringNext = (m.ringNext + 1) % len(m.ring)

	if m.ringNext == 0 {
		m.ringFull = true
	}

	warnings := m.checkThresholdsLocked(timing)

	m.mu.Unlock()

	if m.collectors != nil {
		m.collectors.observe(timing)
	}

	for _, warning := range warnings {
		m.logger.Warn(warning.message, warning.fields)
	}
}

type warning struct {
	message string
	fields  map[string]interface{}
}

// checkThresholdsLocked returns the warnings to log once the lock is released.
// Rate warnings fire once per crossing rather than on every sample.
func (m *Monitor) checkThresholdsLocked(timing autotask.Timing) []warning {
	var warnings []warning

	if m.thresholds.SlowRequest > 0 && timing.Duration > m.thresholds.SlowRequest {
		warnings = append(warnings, warning{
			message: "Slow Autotask request",
			fields: map[string]interface{}{
				"endpoint":  timing.Endpoint,
				"method":    timing.Method,
				"duration":  timing.Duration.String(),
				"threshold": m.thresholds.SlowRequest.String(),
			},
		})
	}

	if m.total < m.thresholds.MinSamples {
		return warnings
	}

	errorRate := float64(m.failures) / float64(m.total)
	if errorRate > m.thresholds.ErrorRate {
		if !m.warnedErrorRate {
			m.warnedErrorRate = true

			warnings = append(warnings, warning{
				message: "High Autotask error rate",
				fields: map[string]interface{}{
					"error_rate": fmt.Sprintf("%.1f%%", errorRate*constants.PercentageMultiplier),
					"threshold":  fmt.Sprintf("%.1f%%", m.thresholds.ErrorRate*constants.PercentageMultiplier),
					"requests":   m.total,
				},
			})
		}
	} else {
		m.warnedErrorRate = false
	}

	throughput := m.throughputLocked()
	if throughput < m.thresholds.MinThroughput {
		if !m.warnedThroughput {
			m.warnedThroughput = true

			warnings = append(warnings, warning{
				message: "Low Autotask throughput",
				fields: map[string]interface{}{
					"requests_per_second": fmt.Sprintf("%.3f", throughput),
					"threshold":           m.thresholds.MinThroughput,
				},
			})
		}
	} else {
		m.warnedThroughput = false
	}

	return warnings
}

func (m *Monitor) throughputLocked() float64 {
	elapsed := m.now().Sub(m.since).Seconds()
	if elapsed <= 0 {
		return float64(m.total)
	}

	return float64(m.total) / elapsed
}

// Metrics returns a snapshot.
func (m *Monitor) Metrics() autotask.PerformanceMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := autotask.PerformanceMetrics{
		TotalRequests: m.total,
		SuccessCount:  m.success,
		ErrorCount:    m.failures,
		MinLatency:    m.minLatency,
		MaxLatency:    m.maxLatency,
		ErrorsByKind:  make(map[autotask.ErrorKind]int64, len(m.byKind)),
		Endpoints:     make(map[string]autotask.EndpointMetrics, len(m.endpoints)),
		Since:         m.since,
	}

	if m.total > 0 {
		snapshot.AverageLatency = m.totalLatency / time.Duration(m.total)
		snapshot.ErrorRate = float64(m.failures) / float64(m.total)
		snapshot.RequestsPerSecond = m.throughputLocked()
	}

	for kind, count := range m.byKind {
		snapshot.ErrorsByKind[kind] = count
	}

	for endpoint, counters := range m.endpoints {
		snapshot.Endpoints[endpoint] = autotask.EndpointMetrics{
			Requests:       counters.requests,
			Errors:         counters.errors,
			AverageLatency: counters.total / time.Duration(counters.requests),
		}
	}

	samples := m.samplesLocked()
	snapshot.P50Latency = Percentile(samples, 50)
	snapshot.P95Latency = Percentile(samples, 95)
	snapshot.P99Latency = Percentile(samples, 99)

	return snapshot
}

func (m *Monitor) samplesLocked() []time.Duration {
	count := m.ringNext
	if m.ringFull {
		count = len(m.ring)
	}

	samples := make([]time.Duration, count)
	copy(samples, m.ring[:count])
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	return samples
}

// Reset clears all aggregates and restarts the throughput clock.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
}

func (m *Monitor) resetLocked() {
	m.since = m.now()
	m.total = 0
	m.success = 0
	m.failures = 0
	m.totalLatency = 0
	m.minLatency = 0
	m.maxLatency = 0
	m.byKind = make(map[autotask.ErrorKind]int64)
	m.endpoints = make(map[string]*endpointCounters)
	m.ringNext = 0
	m.ringFull = false
	m.warnedErrorRate = false
	m.warnedThroughput = false
}

// Percentile returns the nearest-rank percentile of sorted samples.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	rank := int(math.Ceil(p/constants.PercentageMultiplier*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}

	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}

	return sorted[rank]
}
