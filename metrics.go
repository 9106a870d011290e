package di

import (
	"sort"
	"sync"
	"time"
)

// ServiceMetrics is an aggregated per-service view of resolution activity.
type ServiceMetrics struct {
	Name       string        `json:"name"`
	Calls      uint64        `json:"calls"`
	Errors     uint64        `json:"errors"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
}

type serviceStats struct {
	calls  uint64
	errors uint64
	total  time.Duration
}

// metricsRecorder accumulates per-service resolution statistics. It is
// strictly observational: recording never fails and never blocks the
// resolution path beyond a brief map update.
type metricsRecorder struct {
	mu    sync.Mutex
	stats map[string]*serviceStats
}

func newMetricsRecorder() *metricsRecorder {
	return &metricsRecorder{
		stats: make(map[string]*serviceStats, 32),
	}
}

func (r *metricsRecorder) record(name string, d time.Duration, err error) {
	r.mu.Lock()
	s, ok := r.stats[name]
	if !ok {
		s = &serviceStats{}
		r.stats[name] = s
	}
	s.calls++
	if err != nil {
		s.errors++
	}
	s.total += d
	r.mu.Unlock()
}

func (s *serviceStats) snapshot(name string) ServiceMetrics {
	m := ServiceMetrics{
		Name:   name,
		Calls:  s.calls,
		Errors: s.errors,
	}
	if s.calls > 0 {
		m.AvgLatency = s.total / time.Duration(s.calls)
	}
	return m
}

func (r *metricsRecorder) reset() {
	r.mu.Lock()
	r.stats = make(map[string]*serviceStats, 32)
	r.mu.Unlock()
}

// Metrics returns the accumulated statistics of one service. The second
// return value is false if the service has never been resolved.
func (c *Container) Metrics(name string) (ServiceMetrics, bool) {
	c.metrics.mu.Lock()
	defer c.metrics.mu.Unlock()

	s, ok := c.metrics.stats[name]
	if !ok {
		return ServiceMetrics{}, false
	}
	return s.snapshot(name), true
}

// AllMetrics returns statistics for every service that has been resolved
// at least once, sorted by name.
func (c *Container) AllMetrics() []ServiceMetrics {
	c.metrics.mu.Lock()
	defer c.metrics.mu.Unlock()

	out := make([]ServiceMetrics, 0, len(c.metrics.stats))
	for name, s := range c.metrics.stats {
		out = append(out, s.snapshot(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
