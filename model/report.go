package model

import (
	"time"

	"github.com/google/uuid"
)

// Position is where the composed text is injected into the prompt
type Position string

const (
	PositionBeforePrompt Position = "before_prompt"
	PositionInChat       Position = "in_chat"
	PositionAfterPrompt  Position = "after_prompt"
)

// Injection is the verification record of the composed output block
type Injection struct {
	Text      string   `json:"text"`
	Position  Position `json:"position"`
	Depth     int      `json:"depth"`
	CharCount int      `json:"char_count"`
	Verified  bool     `json:"verified"`
}

// TraceEntry is one timestamped pipeline event
type TraceEntry struct {
	Time    time.Time `json:"time"`
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
}

// Cause labels the stage a diagnosis identified as causal
type Cause string

const (
	CauseNone           Cause = ""
	CauseVectorSearch   Cause = "vector_search_empty"
	CauseThreshold      Cause = "threshold"
	CauseTemporalDecay  Cause = "temporal_decay"
	CauseConditions     Cause = "conditions"
	CauseTopKZero       Cause = "top_k_zero"
	CauseDuplicatesOnly Cause = "duplicates_only"
	CauseUnknown        Cause = "unknown"
)

// DiagnosisStatus marks how a diagnosis step concluded
type DiagnosisStatus string

const (
	StatusOK    DiagnosisStatus = "ok"
	StatusCause DiagnosisStatus = "cause"
	StatusInfo  DiagnosisStatus = "info"
)

// DiagnosisStep is one step of the causal decision sequence
type DiagnosisStep struct {
	Stage      Stage           `json:"stage"`
	Status     DiagnosisStatus `json:"status"`
	Cause      Cause           `json:"cause,omitempty"`
	Detail     string          `json:"detail"`
	Suggestion string          `json:"suggestion,omitempty"`
}

// Report is the complete outcome of one query: the survivor snapshot after
// every stage, every chunk's fate, the event trace, the injection record and
// the diagnosis steps
type Report struct {
	QueryID   uuid.UUID `json:"query_id"`
	QueryText string    `json:"query_text"`
	CreatedAt time.Time `json:"created_at"`

	Stages     map[Stage]Snapshot     `json:"stages"`
	ChunkFates map[string]*FateRecord `json:"chunk_fates"`
	Trace      []TraceEntry           `json:"trace"`

	Injection  Injection       `json:"injection"`
	Suppressed int             `json:"suppressed"`
	Diagnosis  []DiagnosisStep `json:"diagnosis,omitempty"`

	Settings Settings `json:"settings"`
}

// Snapshot returns the survivor set after the given stage
func (r *Report) Snapshot(stage Stage) Snapshot {
	return r.Stages[stage]
}

// RootCause returns the causal step of the diagnosis, if any
func (r *Report) RootCause() *DiagnosisStep {
	for i := range r.Diagnosis {
		if r.Diagnosis[i].Status == StatusCause || r.Diagnosis[i].Status == StatusInfo {
			return &r.Diagnosis[i]
		}
	}
	return nil
}
