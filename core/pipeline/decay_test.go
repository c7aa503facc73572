package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbrandt/rescore/model"
)

func TestDecayMultiplier(t *testing.T) {
	t.Run("Exponential decay halves at the half life", func(t *testing.T) {
		cfg := model.TemporalDecay{
			Enabled: true, Type: model.DecayTypeDecay, Mode: model.DecayModeExponential,
			HalfLife: 10, MinRelevance: 0.0,
		}

		assert.InDelta(t, 0.5, DecayMultiplier(cfg, 10), 1e-9)
		assert.InDelta(t, 1.0, DecayMultiplier(cfg, 0), 1e-9)
		assert.InDelta(t, 0.25, DecayMultiplier(cfg, 20), 1e-9)
	})

	t.Run("Exponential decay is floored at minimum relevance", func(t *testing.T) {
		cfg := model.TemporalDecay{
			Enabled: true, Type: model.DecayTypeDecay, Mode: model.DecayModeExponential,
			HalfLife: 10, MinRelevance: 0.3,
		}

		ages := []int{0, 5, 10, 20, 40}
		for _, age := range ages {
			got := DecayMultiplier(cfg, age)
			want := math.Max(0.3, math.Pow(0.5, float64(age)/10))
			assert.InDelta(t, want, got, 1e-9, "age %d", age)
			assert.GreaterOrEqual(t, got, 0.3, "multiplier must never fall below the floor")
		}
	})

	t.Run("Exponential nostalgia rises toward the maximum boost", func(t *testing.T) {
		cfg := model.TemporalDecay{
			Enabled: true, Type: model.DecayTypeNostalgia, Mode: model.DecayModeExponential,
			HalfLife: 10, MaxBoost: 2.0,
		}

		assert.InDelta(t, 1.0, DecayMultiplier(cfg, 0), 1e-9)
		assert.InDelta(t, 1.5, DecayMultiplier(cfg, 10), 1e-9)
		assert.Less(t, DecayMultiplier(cfg, 100), 2.0)
		assert.Greater(t, DecayMultiplier(cfg, 100), DecayMultiplier(cfg, 10))
	})

	t.Run("Linear decay and nostalgia", func(t *testing.T) {
		decay := model.TemporalDecay{
			Enabled: true, Type: model.DecayTypeDecay, Mode: model.DecayModeLinear,
			LinearRate: 0.05, MinRelevance: 0.2,
		}
		assert.InDelta(t, 0.75, DecayMultiplier(decay, 5), 1e-9)
		assert.InDelta(t, 0.2, DecayMultiplier(decay, 100), 1e-9, "floored at minimum relevance")

		nostalgia := model.TemporalDecay{
			Enabled: true, Type: model.DecayTypeNostalgia, Mode: model.DecayModeLinear,
			LinearRate: 0.05, MaxBoost: 1.5,
		}
		assert.InDelta(t, 1.25, DecayMultiplier(nostalgia, 5), 1e-9)
		assert.InDelta(t, 1.5, DecayMultiplier(nostalgia, 100), 1e-9, "capped at maximum boost")
	})

	t.Run("Negative age counts as zero", func(t *testing.T) {
		cfg := model.TemporalDecay{
			Enabled: true, Type: model.DecayTypeDecay, Mode: model.DecayModeExponential,
			HalfLife: 10,
		}

		assert.InDelta(t, 1.0, DecayMultiplier(cfg, -3), 1e-9)
	})
}

func TestApplyDecay(t *testing.T) {
	p := newTestPipeline()

	decaySettings := func() *model.Settings {
		s := model.DefaultSettings()
		s.Threshold = 0.5
		s.TemporalDecay = model.TemporalDecay{
			Enabled: true, Type: model.DecayTypeDecay, Mode: model.DecayModeExponential,
			HalfLife: 10, MinRelevance: 0.0,
		}
		return &s
	}

	t.Run("Disabled decay passes everything through unchanged", func(t *testing.T) {
		settings := decaySettings()
		settings.TemporalDecay.Enabled = false

		old := makeCandidate("a", 0, 0.9)
		old.MessageAge = 100
		snap := makeSnapshot(model.StageAfterThreshold, old)

		out, dropped := p.applyDecay(snap, settings)

		require.Equal(t, 1, out.Count())
		assert.Equal(t, 1.0, out.Candidates[0].DecayMultiplier)
		assert.Equal(t, 0.9, out.Candidates[0].Score)
		assert.Empty(t, dropped)
	})

	t.Run("Re-filters with the original threshold after decay", func(t *testing.T) {
		recent := makeCandidate("recent", 0, 0.9)
		old := makeCandidate("old", 1, 0.9)
		old.MessageAge = 20 // multiplier 0.25 -> score 0.225
		snap := makeSnapshot(model.StageAfterThreshold, recent, old)

		out, dropped := p.applyDecay(snap, decaySettings())

		require.Equal(t, 1, out.Count())
		assert.Equal(t, "recent", out.Candidates[0].Hash)
		assert.Contains(t, dropped["old"], "decayed score")
	})

	t.Run("Decayed score stays replayable from its fields", func(t *testing.T) {
		old := makeCandidate("old", 0, 0.9)
		old.MessageAge = 10
		snap := makeSnapshot(model.StageAfterThreshold, old)

		out, _ := p.applyDecay(snap, decaySettings())

		require.Equal(t, 1, out.Count())
		c := out.Candidates[0]
		assert.InDelta(t, 0.45, c.Score, 1e-9)
		assert.InDelta(t, c.Score, c.ComposeScore(), 1e-9)
	})

	t.Run("Temporally blind chunks are exempt", func(t *testing.T) {
		blind := makeCandidate("blind", 0, 0.9)
		blind.MessageAge = 100
		blind.Meta = &model.ChunkMeta{Hash: "blind", TemporallyBlind: true}
		snap := makeSnapshot(model.StageAfterThreshold, blind)

		out, _ := p.applyDecay(snap, decaySettings())

		require.Equal(t, 1, out.Count())
		assert.Equal(t, 1.0, out.Candidates[0].DecayMultiplier)
		assert.Equal(t, 0.9, out.Candidates[0].Score)
	})
}
