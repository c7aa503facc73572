package model

// Stage identifies one pipeline stage. Snapshot keys, fate labels and
// diagnosis labels all use this closed enum.
type Stage string

const (
	StageInitial         Stage = "initial"
	StageAfterThreshold  Stage = "afterThreshold"
	StageAfterDecay      Stage = "afterDecay"
	StageAfterConditions Stage = "afterConditions"
	StageInjected        Stage = "injected"
)

// Stages returns all pipeline stages in execution order
func Stages() []Stage {
	return []Stage{
		StageInitial,
		StageAfterThreshold,
		StageAfterDecay,
		StageAfterConditions,
		StageInjected,
	}
}

// Snapshot is the read-only survivor set after one named stage
type Snapshot struct {
	Stage      Stage       `json:"stage"`
	Candidates []Candidate `json:"candidates"`
}

// Count returns the number of survivors in the snapshot
func (s Snapshot) Count() int {
	return len(s.Candidates)
}

// Hashes returns the set of candidate hashes in the snapshot
func (s Snapshot) Hashes() map[string]bool {
	hashes := make(map[string]bool, len(s.Candidates))
	for _, c := range s.Candidates {
		hashes[c.Hash] = true
	}
	return hashes
}

// StageStats are the score statistics of a candidate set
type StageStats struct {
	Count int     `json:"count"`
	Best  float64 `json:"best"`
	Worst float64 `json:"worst"`
	Avg   float64 `json:"avg"`
}

// ComputeStats calculates score statistics over a candidate set
func ComputeStats(candidates []Candidate) StageStats {
	stats := StageStats{Count: len(candidates)}
	if len(candidates) == 0 {
		return stats
	}

	stats.Best = candidates[0].Score
	stats.Worst = candidates[0].Score
	sum := 0.0
	for _, c := range candidates {
		if c.Score > stats.Best {
			stats.Best = c.Score
		}
		if c.Score < stats.Worst {
			stats.Worst = c.Score
		}
		sum += c.Score
	}
	stats.Avg = sum / float64(len(candidates))

	return stats
}
