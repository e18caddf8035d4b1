// Package research implements the market-research pipeline: progress
// logging, the report parser, and the stage orchestrator.
package research

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/research-hub/internal/model"
	"github.com/sells-group/research-hub/internal/store"
)

// Recorder appends progress events to a research record. Record never
// returns an error: a missed progress write is acceptable, a crashed
// pipeline is not.
type Recorder struct {
	store store.Store
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(st store.Store) *Recorder {
	return &Recorder{store: st}
}

// Record appends one event to the record's progress log. A missing or
// corrupt existing log is replaced by a fresh empty one before the
// append. Failures are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, researchID string, event model.ProgressEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	var log model.ProgressLog
	raw, err := r.store.GetResearchProgress(ctx, researchID)
	if err != nil {
		zap.L().Warn("progress: load log failed, starting fresh",
			zap.String("research_id", researchID),
			zap.Error(err),
		)
	} else if len(raw) > 0 {
		if err := json.Unmarshal(raw, &log); err != nil {
			zap.L().Warn("progress: corrupt log, starting fresh",
				zap.String("research_id", researchID),
				zap.Error(err),
			)
			log = model.ProgressLog{}
		}
	}

	log.Progress = append(log.Progress, event)

	updated, err := json.Marshal(log)
	if err != nil {
		zap.L().Error("progress: marshal log failed",
			zap.String("research_id", researchID),
			zap.Error(err),
		)
		return
	}

	if err := r.store.UpdateResearchProgress(ctx, researchID, updated); err != nil {
		zap.L().Error("progress: persist log failed",
			zap.String("research_id", researchID),
			zap.String("step", event.Step),
			zap.Error(err),
		)
	}
}
