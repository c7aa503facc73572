package diagnosis

import (
	"fmt"
	"log/slog"

	"github.com/cbrandt/rescore/model"
)

// Engine explains a pipeline report. It runs a fixed ordered decision
// sequence over the stage snapshots and stops at the first stage identified
// as causal; every earlier stage is recorded as a non-causal step with a
// readable detail. The engine never omits a cause: the final fallback is an
// explicit unknown.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates a diagnosis engine with the given logger
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{log: logger}
}

const thresholdSuggestionEpsilon = 0.02

// Diagnose appends the causal decision steps to the report and returns them.
// It reads only the report's snapshots and settings, so it can run at any
// time after the pipeline, including on historical reports.
func (e *Engine) Diagnose(report *model.Report) []model.DiagnosisStep {
	if report == nil {
		return nil
	}

	steps := e.run(report)
	report.Diagnosis = steps

	if cause := report.RootCause(); cause != nil {
		e.log.Info("Diagnosis complete",
			slog.String("query_id", report.QueryID.String()),
			slog.String("cause", string(cause.Cause)),
			slog.String("detail", cause.Detail))
	}

	return steps
}

func (e *Engine) run(report *model.Report) []model.DiagnosisStep {
	var steps []model.DiagnosisStep

	initial := report.Snapshot(model.StageInitial)
	afterThreshold := report.Snapshot(model.StageAfterThreshold)
	afterDecay := report.Snapshot(model.StageAfterDecay)
	afterConditions := report.Snapshot(model.StageAfterConditions)
	injected := report.Snapshot(model.StageInjected)

	// 1. Vector search
	if initial.Count() == 0 {
		return append(steps, model.DiagnosisStep{
			Stage:      model.StageInitial,
			Status:     model.StatusCause,
			Cause:      model.CauseVectorSearch,
			Detail:     "vector search returned no candidates",
			Suggestion: "verify the query embedding and the candidate store contents",
		})
	}
	stats := model.ComputeStats(initial.Candidates)
	steps = append(steps, model.DiagnosisStep{
		Stage:  model.StageInitial,
		Status: model.StatusOK,
		Detail: fmt.Sprintf("vector search returned %d candidates (best %.4f, worst %.4f, avg %.4f)",
			stats.Count, stats.Best, stats.Worst, stats.Avg),
	})

	// 2. Threshold filter
	if afterThreshold.Count() == 0 {
		suggested := stats.Best - thresholdSuggestionEpsilon
		if suggested < 0 {
			suggested = 0
		}
		return append(steps, model.DiagnosisStep{
			Stage:  model.StageAfterThreshold,
			Status: model.StatusCause,
			Cause:  model.CauseThreshold,
			Detail: fmt.Sprintf("threshold %.4f eliminated all %d candidates (best score %.4f)",
				report.Settings.Threshold, stats.Count, stats.Best),
			Suggestion: fmt.Sprintf("lower the threshold to %.4f or below", suggested),
		})
	}
	steps = append(steps, model.DiagnosisStep{
		Stage:  model.StageAfterThreshold,
		Status: model.StatusOK,
		Detail: fmt.Sprintf("%d of %d candidates passed threshold %.4f",
			afterThreshold.Count(), initial.Count(), report.Settings.Threshold),
	})

	// 3. Temporal decay
	if report.Settings.TemporalDecay.Enabled && afterDecay.Count() == 0 {
		decayStats := model.ComputeStats(afterThreshold.Candidates)
		return append(steps, model.DiagnosisStep{
			Stage:  model.StageAfterDecay,
			Status: model.StatusCause,
			Cause:  model.CauseTemporalDecay,
			Detail: fmt.Sprintf("temporal decay eliminated all %d remaining candidates (best pre-decay score %.4f)",
				afterThreshold.Count(), decayStats.Best),
			Suggestion: e.decaySuggestion(report.Settings.TemporalDecay),
		})
	}
	steps = append(steps, model.DiagnosisStep{
		Stage:  model.StageAfterDecay,
		Status: model.StatusOK,
		Detail: e.decayDetail(report, afterThreshold, afterDecay),
	})

	// 4. Condition filter
	if afterConditions.Count() == 0 {
		explicit := e.countExplicitConditions(afterDecay.Candidates)
		detail := fmt.Sprintf("condition filtering eliminated all %d remaining candidates", afterDecay.Count())
		suggestion := "review the filtering applied between decay and selection"
		if explicit > 0 {
			detail = fmt.Sprintf("explicit rule conditions eliminated all %d remaining candidates (%d carried condition sets)",
				afterDecay.Count(), explicit)
			suggestion = "review the chunks' condition rules against the query context"
		}
		return append(steps, model.DiagnosisStep{
			Stage:      model.StageAfterConditions,
			Status:     model.StatusCause,
			Cause:      model.CauseConditions,
			Detail:     detail,
			Suggestion: suggestion,
		})
	}
	steps = append(steps, model.DiagnosisStep{
		Stage:  model.StageAfterConditions,
		Status: model.StatusOK,
		Detail: fmt.Sprintf("%d of %d candidates passed their conditions",
			afterConditions.Count(), afterDecay.Count()),
	})

	if injected.Count() > 0 {
		return append(steps, model.DiagnosisStep{
			Stage:  model.StageInjected,
			Status: model.StatusOK,
			Detail: fmt.Sprintf("%d candidates injected (%d characters)",
				injected.Count(), report.Injection.CharCount),
		})
	}

	// 5. Top-K
	if report.Settings.TopK == 0 {
		return append(steps, model.DiagnosisStep{
			Stage:      model.StageInjected,
			Status:     model.StatusCause,
			Cause:      model.CauseTopKZero,
			Detail:     fmt.Sprintf("top-K is zero, so all %d qualifying candidates were discarded", afterConditions.Count()),
			Suggestion: "raise topK above zero",
		})
	}

	// 6. Everything qualifying was a known duplicate. Not a failure.
	if report.Suppressed > 0 && report.Suppressed == afterConditions.Count() {
		return append(steps, model.DiagnosisStep{
			Stage:  model.StageInjected,
			Status: model.StatusInfo,
			Cause:  model.CauseDuplicatesOnly,
			Detail: fmt.Sprintf("all %d qualifying candidates are already present in the recent context", report.Suppressed),
		})
	}

	// 7. Fallback
	return append(steps, model.DiagnosisStep{
		Stage:      model.StageInjected,
		Status:     model.StatusCause,
		Cause:      model.CauseUnknown,
		Detail:     "no specific stage identified as causal",
		Suggestion: "inspect the trace and per-chunk fates",
	})
}

// LostBetween returns the candidates present after prev but missing after
// next, by hash. It works directly on the report snapshots so callers can
// label exclusions without consulting the fate records.
func LostBetween(report *model.Report, prev, next model.Stage) []model.Candidate {
	if report == nil {
		return nil
	}

	survivors := report.Snapshot(next).Hashes()
	var lost []model.Candidate
	for _, c := range report.Snapshot(prev).Candidates {
		if !survivors[c.Hash] {
			lost = append(lost, c)
		}
	}
	return lost
}

func (e *Engine) decayDetail(report *model.Report, afterThreshold, afterDecay model.Snapshot) string {
	if !report.Settings.TemporalDecay.Enabled {
		return "temporal decay disabled"
	}
	return fmt.Sprintf("%d of %d candidates survived temporal decay",
		afterDecay.Count(), afterThreshold.Count())
}

func (e *Engine) decaySuggestion(cfg model.TemporalDecay) string {
	if cfg.Mode == model.DecayModeLinear {
		return fmt.Sprintf("linear rate %.4f is too aggressive, lower it or raise minRelevance above %.4f",
			cfg.LinearRate, cfg.MinRelevance)
	}
	return fmt.Sprintf("half-life %.1f is too aggressive, raise it or raise minRelevance above %.4f",
		cfg.HalfLife, cfg.MinRelevance)
}

func (e *Engine) countExplicitConditions(candidates []model.Candidate) int {
	count := 0
	for _, c := range candidates {
		if c.Meta != nil && !c.Meta.Conditions.IsEmpty() {
			count++
		}
	}
	return count
}
