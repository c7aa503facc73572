package pipeline

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cbrandt/rescore/model"
)

func newTestPipeline() *Pipeline {
	return NewPipeline(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestQuery(text string) *model.QueryContext {
	return &model.QueryContext{
		ID:         uuid.New(),
		Text:       text,
		Terms:      model.Tokenize(text),
		Now:        time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC),
		RandomRoll: 0.42,
	}
}

func floatPtr(v float64) *float64 { return &v }

func makeCandidate(hash string, index int, score float64) model.Candidate {
	return model.Candidate{
		Hash:            hash,
		Index:           index,
		Text:            "chunk " + hash,
		VectorScore:     score,
		BaseScore:       score,
		KeywordBoost:    1.0,
		DecayMultiplier: 1.0,
		Score:           score,
	}
}

func makeSnapshot(stage model.Stage, candidates ...model.Candidate) model.Snapshot {
	return model.Snapshot{Stage: stage, Candidates: candidates}
}
