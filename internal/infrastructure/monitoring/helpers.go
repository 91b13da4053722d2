package monitoring

import (
	"context"
	"errors"
	"time"
)

// Snapshot returns the current counters for the JSON health endpoint.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	if s.RequestCount > 0 {
		s.AvgLatencyMS = s.TotalDuration / float64(s.RequestCount) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

// ErrorRate returns failed runs over all runs, or 0 before the first run.
func (s MetricsSnapshot) ErrorRate() float64 {
	if s.TotalRuns == 0 {
		return 0
	}
	return float64(s.FailedRuns) / float64(s.TotalRuns)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
