package pipeline

import (
	"fmt"

	"github.com/cbrandt/rescore/model"
)

// FateTracker observes every stage transition and records, per chunk, where
// and why it was dropped or that it was injected
type FateTracker struct {
	records map[string]*model.FateRecord
}

// NewFateTracker creates an empty tracker
func NewFateTracker() *FateTracker {
	return &FateTracker{records: make(map[string]*model.FateRecord)}
}

// Start records the initial appearance of every candidate
func (t *FateTracker) Start(initial model.Snapshot) {
	for _, c := range initial.Candidates {
		t.record(c.Hash).Events = append(t.record(c.Hash).Events, model.FateEvent{
			Stage: model.StageInitial,
			Fate:  model.FatePassed,
		})
	}
}

// Transition records the boundary between two adjacent snapshots. Candidates
// present in prev but missing from next are dropped at next's stage; reasons
// holds the per-hash explanation where one is known.
func (t *FateTracker) Transition(prev, next model.Snapshot, reasons map[string]string) {
	survivors := next.Hashes()

	survivorFate := model.FatePassed
	if next.Stage == model.StageInjected {
		survivorFate = model.FateInjected
	}

	for _, c := range prev.Candidates {
		rec := t.record(c.Hash)
		if survivors[c.Hash] {
			rec.Events = append(rec.Events, model.FateEvent{
				Stage: next.Stage,
				Fate:  survivorFate,
			})
			continue
		}

		reason := reasons[c.Hash]
		if reason == "" {
			reason = fmt.Sprintf("eliminated before %s", next.Stage)
		}
		rec.Events = append(rec.Events, model.FateEvent{
			Stage:  next.Stage,
			Fate:   model.FateDropped,
			Reason: reason,
		})
	}
}

// Finalize derives the final fate of every tracked candidate
func (t *FateTracker) Finalize() map[string]*model.FateRecord {
	for _, rec := range t.records {
		rec.Finalize()
	}
	return t.records
}

func (t *FateTracker) record(hash string) *model.FateRecord {
	rec, ok := t.records[hash]
	if !ok {
		rec = &model.FateRecord{Hash: hash}
		t.records[hash] = rec
	}
	return rec
}
