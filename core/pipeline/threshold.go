package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/cbrandt/rescore/model"
)

// applyThreshold drops candidates whose score is below the threshold.
// The returned map explains every drop; the stage is deterministic and
// idempotent on its own output.
func (p *Pipeline) applyThreshold(snap model.Snapshot, threshold float64) (model.Snapshot, map[string]string) {
	survivors := make([]model.Candidate, 0, len(snap.Candidates))
	dropped := make(map[string]string)

	for _, c := range snap.Candidates {
		if c.Score >= threshold {
			survivors = append(survivors, c)
			continue
		}
		dropped[c.Hash] = fmt.Sprintf("score %.4f below threshold %.4f", c.Score, threshold)
	}

	if len(survivors) == 0 && len(snap.Candidates) > 0 {
		// Downstream diagnosis needs the rejected set statistics
		stats := model.ComputeStats(snap.Candidates)
		p.log.Debug("Threshold eliminated all candidates",
			slog.Float64("threshold", threshold),
			slog.Float64("best", stats.Best),
			slog.Float64("worst", stats.Worst),
			slog.Float64("avg", stats.Avg))
	}

	return model.Snapshot{Stage: model.StageAfterThreshold, Candidates: survivors}, dropped
}
