package agent

import (
	"sync"
	"time"

	"github.com/nothinghide/nothinghide/internal/model"
)

// responseTimeEMAWeight is the exponential moving average weight applied to
// the previous average: new = old*0.8 + sample*0.2.
const responseTimeEMAWeight = 0.8

// Metrics accumulates aggregate statistics across checks. All methods are
// safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	totalQueries      int64
	successfulQueries int64
	failedQueries     int64
	sourcesQueried    int64
	breachesFound     int64
	avgResponseTimeMS float64
	lastQueryTime     time.Time
}

// NewMetrics returns zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordQuery folds one correlated result into the aggregates. A query
// counts as successful when at least one source answered.
func (m *Metrics) RecordQuery(res *model.CorrelatedResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalQueries++
	if res.Inconclusive() {
		m.failedQueries++
	} else {
		m.successfulQueries++
	}
	m.sourcesQueried += int64(len(res.SourcesQueried))
	m.breachesFound += int64(res.BreachCount)
	m.lastQueryTime = res.Timestamp

	if res.TotalResponseTimeMS > 0 {
		if m.avgResponseTimeMS == 0 {
			m.avgResponseTimeMS = res.TotalResponseTimeMS
		} else {
			m.avgResponseTimeMS = m.avgResponseTimeMS*responseTimeEMAWeight +
				res.TotalResponseTimeMS*(1-responseTimeEMAWeight)
		}
	}
}

// MetricsSnapshot is a point-in-time copy of the aggregate metrics.
type MetricsSnapshot struct {
	TotalQueries      int64     `json:"total_queries"`
	SuccessfulQueries int64     `json:"successful_queries"`
	FailedQueries     int64     `json:"failed_queries"`
	SourcesQueried    int64     `json:"sources_queried"`
	BreachesFound     int64     `json:"breaches_found"`
	AvgResponseTimeMS float64   `json:"avg_response_time_ms"`
	LastQueryTime     time.Time `json:"last_query_time"`
}

// Snapshot returns a consistent copy of the current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MetricsSnapshot{
		TotalQueries:      m.totalQueries,
		SuccessfulQueries: m.successfulQueries,
		FailedQueries:     m.failedQueries,
		SourcesQueried:    m.sourcesQueried,
		BreachesFound:     m.breachesFound,
		AvgResponseTimeMS: m.avgResponseTimeMS,
		LastQueryTime:     m.lastQueryTime,
	}
}
