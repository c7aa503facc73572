package rescore

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cbrandt/rescore/core/diagnosis"
	"github.com/cbrandt/rescore/core/keywords"
	"github.com/cbrandt/rescore/core/pipeline"
	"github.com/cbrandt/rescore/database"
	"github.com/cbrandt/rescore/helper"
	"github.com/cbrandt/rescore/model"
	loadSql "github.com/cbrandt/rescore/sql"
)

// Rescore provides a unified interface to the scoring pipeline, the diagnosis
// engine, the query history and the chunk store
type Rescore struct {
	DB        *helper.Database
	Chunks    *database.ChunksDBHandler
	Pipeline  *pipeline.Pipeline
	Diagnosis *diagnosis.Engine
	Extractor *keywords.Extractor
	History   *History
	// Logging
	log *slog.Logger
}

// NewRescore creates a new Rescore instance with the chunk store initialized
func NewRescore(config *helper.DatabaseConfiguration, embeddingDim int) (*Rescore, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("rescore", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	r := NewStandalone(logger)
	r.DB = db
	r.Chunks = chunks

	return r, nil
}

// NewStandalone creates a Rescore instance without a chunk store. Candidates
// must then be supplied to Score directly, e.g. from an external vector
// search collaborator.
func NewStandalone(logger *slog.Logger) *Rescore {
	if logger == nil {
		opts := helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		}
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, opts))
	}

	return &Rescore{
		Pipeline:  pipeline.NewPipeline(logger),
		Diagnosis: diagnosis.NewEngine(logger),
		Extractor: keywords.NewExtractor(keywords.DefaultExtractorOptions()),
		History:   NewHistory(HistorySize),
		log:       logger,
	}
}

// Close closes the database connection
func (r *Rescore) Close() error {
	if r.DB != nil && r.DB.Instance != nil {
		return r.DB.Instance.Close()
	}
	return nil
}

// Score runs the full pipeline over externally supplied candidates, diagnoses
// the result and records the report in the history ring
func (r *Rescore) Score(qc *model.QueryContext, candidates []model.Candidate, settings model.Settings) (*model.Report, error) {
	report, err := r.Pipeline.Run(qc, candidates, settings)
	if err != nil {
		return nil, helper.NewError("score candidates", err)
	}

	r.Diagnosis.Diagnose(report)
	r.History.Add(report)

	return report, nil
}

// Query retrieves candidates for the query embedding from the chunk store and
// scores them. The embedding comes from the caller; generating it is the
// collaborator's responsibility.
func (r *Rescore) Query(qc *model.QueryContext, embedding []float32, limit int, settings model.Settings) (*model.Report, error) {
	if r.Chunks == nil {
		return nil, helper.NewError("query", fmt.Errorf("chunk store not initialized, use NewRescore or supply candidates to Score"))
	}
	if qc == nil {
		return nil, helper.NewError("query", model.ErrEmptyQuery)
	}

	candidates, err := r.Chunks.SelectCandidatesBySimilarity(embedding, limit)
	if err != nil {
		return nil, helper.NewError("select candidates", err)
	}

	r.log.Info("Retrieved candidates",
		slog.String("query_id", qc.ID.String()),
		slog.Int("count", len(candidates)))

	return r.Score(qc, candidates, settings)
}

// ExtractKeywords runs the statistical keyword extractor over chunk text,
// producing weighted trigger keywords for the chunk metadata
func (r *Rescore) ExtractKeywords(text string) []model.Keyword {
	return r.Extractor.Extract(text)
}
