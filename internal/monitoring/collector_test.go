package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/research-hub/internal/model"
)

func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector()

	c.RunStarted()
	c.RunStarted()
	c.RunStarted()
	c.RunFinished(model.ResearchStatusCompleted, 2*time.Second)
	c.RunFinished(model.ResearchStatusFailed, 4*time.Second)
	c.FallbackUsed()

	snap := c.Snapshot()
	assert.Equal(t, 3, snap.RunsTotal)
	assert.Equal(t, 1, snap.RunsInProgress)
	assert.Equal(t, 1, snap.RunsCompleted)
	assert.Equal(t, 1, snap.RunsFailed)
	assert.InDelta(t, 0.5, snap.FailRate, 1e-9)
	assert.InDelta(t, 3.0, snap.AvgRunSeconds, 1e-9)
	assert.Equal(t, 1, snap.FallbacksUsed)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollector_EmptySnapshot(t *testing.T) {
	snap := NewCollector().Snapshot()
	assert.Zero(t, snap.RunsTotal)
	assert.Zero(t, snap.FailRate)
	assert.Zero(t, snap.AvgRunSeconds)
}
