package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cbrandt/rescore/core/keywords"
	"github.com/cbrandt/rescore/helper"
	"github.com/cbrandt/rescore/model"
)

// Pipeline runs one query as a synchronous sequence of pure stage
// transformations over immutable snapshots. Pipelines hold no per-query
// state, so one instance can serve concurrent sessions.
type Pipeline struct {
	log *slog.Logger
}

// NewPipeline creates a pipeline with the given logger
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{log: logger}
}

// Run executes the full scoring pipeline for one query. The input candidates
// come from the vector search collaborator; an empty candidate list is not
// an error and flows through to diagnosis. The only fatal precondition is
// the absence of usable query text.
func (p *Pipeline) Run(qc *model.QueryContext, candidates []model.Candidate, settings model.Settings) (*model.Report, error) {
	if qc == nil || strings.TrimSpace(qc.Text) == "" {
		return nil, helper.NewError("run pipeline", model.ErrEmptyQuery)
	}
	settings.Normalize()

	report := &model.Report{
		QueryID:   qc.ID,
		QueryText: qc.Text,
		CreatedAt: time.Now(),
		Stages:    make(map[model.Stage]model.Snapshot, 5),
		Settings:  settings,
	}
	trace := func(stage model.Stage, format string, args ...interface{}) {
		report.Trace = append(report.Trace, model.TraceEntry{
			Time:    time.Now(),
			Stage:   stage,
			Message: fmt.Sprintf(format, args...),
		})
	}

	tracker := NewFateTracker()

	// Intake: lexical scoring and score fusion
	intake := candidates
	if settings.KeywordScoringMethod == model.MethodBM25 || settings.KeywordScoringMethod == model.MethodHybrid {
		intake = p.applyLexicalScores(candidates, qc, &settings)
	}
	fused := model.FuseBaseScores(intake)

	initial := p.applyKeywordBoost(model.Snapshot{Stage: model.StageInitial, Candidates: fused}, qc, &settings)
	report.Stages[model.StageInitial] = initial
	tracker.Start(initial)
	trace(model.StageInitial, "vector search returned %d candidates", initial.Count())

	afterThreshold, droppedAtThreshold := p.applyThreshold(initial, settings.Threshold)
	report.Stages[model.StageAfterThreshold] = afterThreshold
	tracker.Transition(initial, afterThreshold, droppedAtThreshold)
	trace(model.StageAfterThreshold, "%d of %d candidates at or above threshold %.2f",
		afterThreshold.Count(), initial.Count(), settings.Threshold)

	afterDecay, droppedAtDecay := p.applyDecay(afterThreshold, &settings)
	report.Stages[model.StageAfterDecay] = afterDecay
	tracker.Transition(afterThreshold, afterDecay, droppedAtDecay)
	if settings.TemporalDecay.Enabled {
		trace(model.StageAfterDecay, "%d of %d candidates survived temporal decay",
			afterDecay.Count(), afterThreshold.Count())
	} else {
		trace(model.StageAfterDecay, "temporal decay disabled, %d candidates pass through", afterDecay.Count())
	}

	afterConditions, droppedAtConditions := p.applyConditions(afterDecay, qc)
	report.Stages[model.StageAfterConditions] = afterConditions
	tracker.Transition(afterDecay, afterConditions, droppedAtConditions)
	trace(model.StageAfterConditions, "%d of %d candidates passed their conditions",
		afterConditions.Count(), afterDecay.Count())

	deduped, droppedAtDedupe, suppressed := p.applyDedupe(afterConditions, qc, &settings)
	report.Suppressed = suppressed
	if suppressed > 0 {
		trace(model.StageInjected, "%d candidates suppressed as context duplicates", suppressed)
	}

	selection := p.applySelection(deduped, qc, &settings)
	for hash, reason := range droppedAtDedupe {
		selection.dropped[hash] = reason
	}
	report.Stages[model.StageInjected] = selection.snapshot
	report.Injection = selection.injection
	tracker.Transition(afterConditions, selection.snapshot, selection.dropped)
	trace(model.StageInjected, "injected %d candidates (%d chars, verified=%t)",
		selection.snapshot.Count(), selection.injection.CharCount, selection.injection.Verified)
	for _, warning := range selection.warnings {
		trace(model.StageInjected, "%s", warning)
	}

	report.ChunkFates = tracker.Finalize()

	p.log.Info("Pipeline run complete",
		slog.String("query_id", qc.ID.String()),
		slog.Int("initial", initial.Count()),
		slog.Int("injected", selection.snapshot.Count()),
		slog.Int("suppressed", suppressed))

	return report, nil
}

// applyLexicalScores fills every candidate's text score from BM25 over the
// candidate set and marks unfused candidates for weighted fusion
func (p *Pipeline) applyLexicalScores(candidates []model.Candidate, qc *model.QueryContext, settings *model.Settings) []model.Candidate {
	scored := make([]model.Candidate, len(candidates))
	copy(scored, candidates)

	docs := make([]string, len(scored))
	for i, c := range scored {
		docs[i] = c.Text
	}

	scorer := keywords.NewBM25Scorer(settings.BM25)
	scores := scorer.Score(qc.Terms, docs)

	for i := range scored {
		score := scores[i]
		scored[i].TextScore = &score
		if scored[i].FusionMethod == model.FusionNone {
			scored[i].FusionMethod = model.FusionWeighted
		}
	}

	return scored
}
