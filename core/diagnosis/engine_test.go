package diagnosis

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbrandt/rescore/model"
)

func newTestEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func scored(hash string, score float64) model.Candidate {
	return model.Candidate{
		Hash: hash, Text: "chunk " + hash,
		VectorScore: score, BaseScore: score,
		KeywordBoost: 1.0, DecayMultiplier: 1.0, Score: score,
	}
}

func newReport(settings model.Settings) *model.Report {
	return &model.Report{
		QueryID:  uuid.New(),
		Stages:   make(map[model.Stage]model.Snapshot),
		Settings: settings,
	}
}

func setStage(r *model.Report, stage model.Stage, candidates ...model.Candidate) {
	r.Stages[stage] = model.Snapshot{Stage: stage, Candidates: candidates}
}

func TestDiagnose(t *testing.T) {
	e := newTestEngine()

	t.Run("Empty vector search is the first cause checked", func(t *testing.T) {
		report := newReport(model.DefaultSettings())
		for _, stage := range model.Stages() {
			setStage(report, stage)
		}

		steps := e.Diagnose(report)

		require.Len(t, steps, 1)
		assert.Equal(t, model.StatusCause, steps[0].Status)
		assert.Equal(t, model.CauseVectorSearch, steps[0].Cause)
		assert.Equal(t, model.StageInitial, steps[0].Stage)
	})

	t.Run("Threshold eliminating everything suggests a lower threshold", func(t *testing.T) {
		settings := model.DefaultSettings()
		settings.Threshold = 0.8
		report := newReport(settings)
		setStage(report, model.StageInitial, scored("a", 0.62), scored("b", 0.4))
		setStage(report, model.StageAfterThreshold)
		setStage(report, model.StageAfterDecay)
		setStage(report, model.StageAfterConditions)
		setStage(report, model.StageInjected)

		steps := e.Diagnose(report)

		require.Len(t, steps, 2)
		assert.Equal(t, model.StatusOK, steps[0].Status)
		cause := report.RootCause()
		require.NotNil(t, cause)
		assert.Equal(t, model.CauseThreshold, cause.Cause)
		assert.Contains(t, cause.Suggestion, "0.6000")
	})

	t.Run("Decay wiping the survivors is causal only when enabled", func(t *testing.T) {
		settings := model.DefaultSettings()
		settings.TemporalDecay.Enabled = true
		report := newReport(settings)
		setStage(report, model.StageInitial, scored("a", 0.9))
		setStage(report, model.StageAfterThreshold, scored("a", 0.9))
		setStage(report, model.StageAfterDecay)
		setStage(report, model.StageAfterConditions)
		setStage(report, model.StageInjected)

		steps := e.Diagnose(report)

		require.Len(t, steps, 3)
		cause := report.RootCause()
		require.NotNil(t, cause)
		assert.Equal(t, model.CauseTemporalDecay, cause.Cause)
		assert.Contains(t, cause.Suggestion, "half-life")
	})

	t.Run("Condition filter distinguishes explicit rules", func(t *testing.T) {
		report := newReport(model.DefaultSettings())
		conditioned := scored("a", 0.9)
		conditioned.Meta = &model.ChunkMeta{
			Hash: "a",
			Conditions: model.ConditionSet{
				Enabled: true,
				Logic:   model.LogicAnd,
				Rules:   []model.Rule{{Type: model.RuleSpeaker, Value: "Bob"}},
			},
		}
		setStage(report, model.StageInitial, conditioned)
		setStage(report, model.StageAfterThreshold, conditioned)
		setStage(report, model.StageAfterDecay, conditioned)
		setStage(report, model.StageAfterConditions)
		setStage(report, model.StageInjected)

		e.Diagnose(report)

		cause := report.RootCause()
		require.NotNil(t, cause)
		assert.Equal(t, model.CauseConditions, cause.Cause)
		assert.Contains(t, cause.Detail, "explicit rule conditions")
	})

	t.Run("Zero top-K is reported as its own cause, not unknown", func(t *testing.T) {
		settings := model.DefaultSettings()
		settings.TopK = 0
		report := newReport(settings)
		qualifying := []model.Candidate{scored("a", 0.9), scored("b", 0.8), scored("c", 0.7)}
		setStage(report, model.StageInitial, qualifying...)
		setStage(report, model.StageAfterThreshold, qualifying...)
		setStage(report, model.StageAfterDecay, qualifying...)
		setStage(report, model.StageAfterConditions, qualifying...)
		setStage(report, model.StageInjected)

		e.Diagnose(report)

		cause := report.RootCause()
		require.NotNil(t, cause)
		assert.Equal(t, model.CauseTopKZero, cause.Cause)
		assert.Equal(t, model.StatusCause, cause.Status)
	})

	t.Run("All survivors suppressed as duplicates is informational", func(t *testing.T) {
		report := newReport(model.DefaultSettings())
		qualifying := []model.Candidate{scored("a", 0.9), scored("b", 0.8), scored("c", 0.7), scored("d", 0.6)}
		setStage(report, model.StageInitial, qualifying...)
		setStage(report, model.StageAfterThreshold, qualifying...)
		setStage(report, model.StageAfterDecay, qualifying...)
		setStage(report, model.StageAfterConditions, qualifying...)
		setStage(report, model.StageInjected)
		report.Suppressed = 4

		e.Diagnose(report)

		cause := report.RootCause()
		require.NotNil(t, cause)
		assert.Equal(t, model.StatusInfo, cause.Status)
		assert.Equal(t, model.CauseDuplicatesOnly, cause.Cause)
	})

	t.Run("Unexplained empty injection falls back to unknown", func(t *testing.T) {
		report := newReport(model.DefaultSettings())
		setStage(report, model.StageInitial, scored("a", 0.9))
		setStage(report, model.StageAfterThreshold, scored("a", 0.9))
		setStage(report, model.StageAfterDecay, scored("a", 0.9))
		setStage(report, model.StageAfterConditions, scored("a", 0.9))
		setStage(report, model.StageInjected)

		e.Diagnose(report)

		cause := report.RootCause()
		require.NotNil(t, cause)
		assert.Equal(t, model.CauseUnknown, cause.Cause)
	})

	t.Run("Successful injection yields only OK steps", func(t *testing.T) {
		report := newReport(model.DefaultSettings())
		setStage(report, model.StageInitial, scored("a", 0.9))
		setStage(report, model.StageAfterThreshold, scored("a", 0.9))
		setStage(report, model.StageAfterDecay, scored("a", 0.9))
		setStage(report, model.StageAfterConditions, scored("a", 0.9))
		setStage(report, model.StageInjected, scored("a", 0.9))

		steps := e.Diagnose(report)

		require.Len(t, steps, 5)
		for _, step := range steps {
			assert.Equal(t, model.StatusOK, step.Status, "stage %s", step.Stage)
		}
		assert.Nil(t, report.RootCause())
	})
}

func TestLostBetween(t *testing.T) {
	report := newReport(model.DefaultSettings())
	setStage(report, model.StageInitial, scored("a", 0.9), scored("b", 0.5), scored("c", 0.2))
	setStage(report, model.StageAfterThreshold, scored("a", 0.9))

	lost := LostBetween(report, model.StageInitial, model.StageAfterThreshold)

	require.Len(t, lost, 2)
	assert.Equal(t, "b", lost[0].Hash)
	assert.Equal(t, "c", lost[1].Hash)

	assert.Empty(t, LostBetween(report, model.StageAfterThreshold, model.StageAfterThreshold))
	assert.Nil(t, LostBetween(nil, model.StageInitial, model.StageAfterThreshold))
}
