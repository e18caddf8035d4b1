// Package monitoring tracks research pipeline health for the metrics
// endpoint.
package monitoring

import (
	"sync"
	"time"

	"github.com/sells-group/research-hub/internal/model"
)

// MetricsSnapshot holds a point-in-time view of pipeline health.
type MetricsSnapshot struct {
	RunsTotal      int     `json:"runs_total"`
	RunsInProgress int     `json:"runs_in_progress"`
	RunsCompleted  int     `json:"runs_completed"`
	RunsFailed     int     `json:"runs_failed"`
	FailRate       float64 `json:"fail_rate"`
	FallbacksUsed  int     `json:"fallbacks_used"`
	AvgRunSeconds  float64 `json:"avg_run_seconds"`

	UptimeSeconds float64   `json:"uptime_seconds"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector accumulates research run counters in memory. All methods
// are safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	started       int
	completed     int
	failed        int
	fallbacks     int
	totalDuration time.Duration
	startedAt     time.Time
}

// NewCollector creates a collector with the uptime clock started.
func NewCollector() *Collector {
	return &Collector{startedAt: time.Now().UTC()}
}

// RunStarted records a new pipeline run.
func (c *Collector) RunStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
}

// RunFinished records a terminal run outcome and its duration.
func (c *Collector) RunFinished(status model.ResearchStatus, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch status {
	case model.ResearchStatusCompleted:
		c.completed++
	case model.ResearchStatusFailed:
		c.failed++
	}
	c.totalDuration += d
}

// FallbackUsed records a primary-to-fallback provider transition.
func (c *Collector) FallbackUsed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallbacks++
}

// Snapshot returns the current counter state.
func (c *Collector) Snapshot() MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := MetricsSnapshot{
		RunsTotal:      c.started,
		RunsInProgress: c.started - c.completed - c.failed,
		RunsCompleted:  c.completed,
		RunsFailed:     c.failed,
		FallbacksUsed:  c.fallbacks,
		UptimeSeconds:  time.Since(c.startedAt).Seconds(),
		CollectedAt:    time.Now().UTC(),
	}

	finished := c.completed + c.failed
	if finished > 0 {
		snap.FailRate = float64(c.failed) / float64(finished)
		snap.AvgRunSeconds = c.totalDuration.Seconds() / float64(finished)
	}
	return snap
}
