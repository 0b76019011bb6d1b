package gateway

import (
	"sync/atomic"
	"time"
)

// Metrics tracks gateway-level counters using atomic operations for
// lock-free concurrency.
type Metrics struct {
	messages     atomic.Int64
	completions  atomic.Int64
	errors       atomic.Int64
	compactions  atomic.Int64
	tokensSaved  atomic.Int64
	totalLatency atomic.Int64 // nanoseconds
}

// RecordMessage records an inbound chat message.
func (m *Metrics) RecordMessage() {
	m.messages.Add(1)
}

// RecordCompletion records a successful model completion.
func (m *Metrics) RecordCompletion(latency time.Duration) {
	m.completions.Add(1)
	m.totalLatency.Add(int64(latency))
}

// RecordError records a processing error.
func (m *Metrics) RecordError() {
	m.errors.Add(1)
}

// RecordCompaction records a completed compaction and its token delta.
// tokensSaved may be negative for a verbose summary.
func (m *Metrics) RecordCompaction(tokensSaved int) {
	m.compactions.Add(1)
	m.tokensSaved.Add(int64(tokensSaved))
}

// Snapshot returns a consistent point-in-time view of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	completions := m.completions.Load()
	snap := MetricsSnapshot{
		Messages:    m.messages.Load(),
		Completions: completions,
		Errors:      m.errors.Load(),
		Compactions: m.compactions.Load(),
		TokensSaved: m.tokensSaved.Load(),
	}
	if completions > 0 {
		snap.AvgLatency = time.Duration(m.totalLatency.Load() / completions)
	}
	return snap
}

// MetricsSnapshot is a serializable point-in-time metrics view.
type MetricsSnapshot struct {
	Messages    int64         `json:"messages"`
	Completions int64         `json:"completions"`
	Errors      int64         `json:"errors"`
	Compactions int64         `json:"compactions"`
	TokensSaved int64         `json:"tokens_saved"`
	AvgLatency  time.Duration `json:"avg_latency_ns"`
}
