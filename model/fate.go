package model

// FateKind is the recorded outcome of a candidate at one stage
type FateKind string

const (
	FatePassed   FateKind = "passed"
	FateDropped  FateKind = "dropped"
	FateInjected FateKind = "injected"
)

// FateEvent is one stage transition of a candidate
type FateEvent struct {
	Stage  Stage    `json:"stage"`
	Fate   FateKind `json:"fate"`
	Reason string   `json:"reason,omitempty"`
}

// FateRecord is the full per-chunk trace of where a candidate went through
// the pipeline and where it was dropped, if anywhere
type FateRecord struct {
	Hash        string      `json:"hash"`
	Events      []FateEvent `json:"stages"`
	FinalFate   FateKind    `json:"final_fate"`
	FinalReason string      `json:"final_reason,omitempty"`
	DroppedAt   Stage       `json:"dropped_at,omitempty"`
}

// Finalize derives FinalFate, FinalReason and DroppedAt from the recorded
// events. A candidate is dropped iff its last event is a drop.
func (r *FateRecord) Finalize() {
	if len(r.Events) == 0 {
		return
	}

	last := r.Events[len(r.Events)-1]
	if last.Fate == FateDropped {
		r.FinalFate = FateDropped
		r.FinalReason = last.Reason
		r.DroppedAt = last.Stage
	} else {
		r.FinalFate = FateInjected
		r.FinalReason = last.Reason
		r.DroppedAt = ""
	}
}
