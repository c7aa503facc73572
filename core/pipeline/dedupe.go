package pipeline

import (
	"strings"

	"github.com/cbrandt/rescore/model"
)

// applyDedupe drops candidates whose content already appears in the recent
// context window. A deduplication depth of 0 checks the entire context. The
// suppressed count lets diagnosis distinguish "nothing relevant" from
// "everything already known".
func (p *Pipeline) applyDedupe(snap model.Snapshot, qc *model.QueryContext, settings *model.Settings) ([]model.Candidate, map[string]string, int) {
	window := qc.RecentMessages
	if settings.DeduplicationDepth > 0 && len(window) > settings.DeduplicationDepth {
		window = window[:settings.DeduplicationDepth]
	}

	if len(window) == 0 {
		return snap.Candidates, nil, 0
	}

	normalized := make([]string, len(window))
	for i, msg := range window {
		normalized[i] = normalizeText(msg)
	}

	survivors := make([]model.Candidate, 0, len(snap.Candidates))
	dropped := make(map[string]string)
	suppressed := 0

	for _, c := range snap.Candidates {
		if containedInContext(normalizeText(c.Text), normalized) {
			dropped[c.Hash] = "content already present in context window"
			suppressed++
			continue
		}
		survivors = append(survivors, c)
	}

	return survivors, dropped, suppressed
}

func containedInContext(text string, context []string) bool {
	if text == "" {
		return false
	}
	for _, msg := range context {
		if strings.Contains(msg, text) {
			return true
		}
	}
	return false
}

// normalizeText lowercases and collapses all whitespace runs to single spaces
func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
