package pipeline

import (
	"fmt"
	"math"

	"github.com/cbrandt/rescore/model"
)

// applyDecay rescales every candidate's score by its message age and
// re-filters with the original threshold. Temporally blind chunks keep a
// multiplier of 1.0, as does everything when decay is disabled.
func (p *Pipeline) applyDecay(snap model.Snapshot, settings *model.Settings) (model.Snapshot, map[string]string) {
	cfg := settings.TemporalDecay

	if !cfg.Enabled {
		return model.Snapshot{Stage: model.StageAfterDecay, Candidates: snap.Candidates}, nil
	}

	survivors := make([]model.Candidate, 0, len(snap.Candidates))
	dropped := make(map[string]string)

	for _, c := range snap.Candidates {
		if c.Meta == nil || !c.Meta.TemporallyBlind {
			c.DecayMultiplier = DecayMultiplier(cfg, c.MessageAge)
			c.Score = c.ComposeScore()
		}

		if c.Score >= settings.Threshold {
			survivors = append(survivors, c)
			continue
		}
		dropped[c.Hash] = fmt.Sprintf(
			"decayed score %.4f (multiplier %.4f at age %d) below threshold %.4f",
			c.Score, c.DecayMultiplier, c.MessageAge, settings.Threshold)
	}

	return model.Snapshot{Stage: model.StageAfterDecay, Candidates: survivors}, dropped
}

// DecayMultiplier computes the age multiplier for one candidate under the
// given configuration:
//
//	exponential decay:     max(minRelevance, 0.5^(age/halfLife))
//	exponential nostalgia: 1 + (maxBoost-1) * (1 - 0.5^(age/halfLife))
//	linear decay:          max(minRelevance, 1 - linearRate*age)
//	linear nostalgia:      min(maxBoost, 1 + linearRate*age)
func DecayMultiplier(cfg model.TemporalDecay, messageAge int) float64 {
	age := float64(messageAge)
	if age < 0 {
		age = 0
	}

	switch cfg.Mode {
	case model.DecayModeLinear:
		if cfg.Type == model.DecayTypeNostalgia {
			return math.Min(cfg.MaxBoost, 1+cfg.LinearRate*age)
		}
		return math.Max(cfg.MinRelevance, 1-cfg.LinearRate*age)
	default:
		halved := math.Pow(0.5, age/cfg.HalfLife)
		if cfg.Type == model.DecayTypeNostalgia {
			return 1 + (cfg.MaxBoost-1)*(1-halved)
		}
		return math.Max(cfg.MinRelevance, halved)
	}
}
