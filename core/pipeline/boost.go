package pipeline

import (
	"log/slog"
	"strings"

	"github.com/cbrandt/rescore/model"
)

// applyKeywordBoost annotates every candidate with its matched keywords and
// the resulting boost. The boost is the product of all matched keyword
// weights; the stage never drops candidates.
func (p *Pipeline) applyKeywordBoost(snap model.Snapshot, qc *model.QueryContext, settings *model.Settings) model.Snapshot {
	if settings.KeywordScoringMethod == model.MethodBM25 {
		// Lexical relevance is already folded into the base score at intake
		return model.Snapshot{Stage: snap.Stage, Candidates: snap.Candidates}
	}

	boosted := make([]model.Candidate, len(snap.Candidates))
	copy(boosted, snap.Candidates)

	queryText := strings.ToLower(qc.Text)

	for i := range boosted {
		c := &boosted[i]
		if c.Meta == nil || len(c.Meta.Keywords) == 0 {
			continue
		}

		boost := 1.0
		var matched []model.MatchedKeyword
		for _, kw := range c.Meta.Keywords {
			if kw.Text == "" || !keywordMatches(kw.Text, queryText, qc.Terms) {
				continue
			}
			boost *= kw.Weight
			matched = append(matched, model.MatchedKeyword{Text: kw.Text, Weight: kw.Weight})
		}

		if len(matched) == 0 {
			continue
		}

		c.KeywordBoost = boost
		c.MatchedKeywords = matched
		c.Score = c.ComposeScore()

		p.log.Debug("Keyword boost applied",
			slog.String("hash", c.Hash),
			slog.Int("matched", len(matched)),
			slog.Float64("boost", boost))
	}

	return model.Snapshot{Stage: snap.Stage, Candidates: boosted}
}

// keywordMatches reports whether a stored keyword matches the query, either
// as an exact token or as a case-insensitive substring of the query text
func keywordMatches(keyword, queryText string, terms []string) bool {
	keyword = strings.ToLower(keyword)

	for _, term := range terms {
		if term == keyword {
			return true
		}
	}

	return strings.Contains(queryText, keyword)
}
