package keywords

import (
	"math"
	"strings"

	"github.com/cbrandt/rescore/model"
)

// BM25Scorer scores documents against query terms with the Okapi BM25
// ranking function. The candidate set of one query is the corpus.
type BM25Scorer struct {
	params model.BM25Params
}

// NewBM25Scorer creates a scorer with the given parameters
func NewBM25Scorer(params model.BM25Params) *BM25Scorer {
	if params.K1 <= 0 {
		params.K1 = 1.2
	}
	if params.B < 0 || params.B > 1 {
		params.B = 0.75
	}
	return &BM25Scorer{params: params}
}

// Score returns one relevance score per document, normalized to [0,1] by the
// best score in the set so the result is comparable to a similarity score.
func (s *BM25Scorer) Score(queryTerms []string, docs []string) []float64 {
	scores := make([]float64, len(docs))
	if len(docs) == 0 || len(queryTerms) == 0 {
		return scores
	}

	docTerms := make([][]string, len(docs))
	totalLen := 0
	for i, doc := range docs {
		docTerms[i] = model.Tokenize(doc)
		totalLen += len(docTerms[i])
	}
	avgLen := float64(totalLen) / float64(len(docs))
	if avgLen == 0 {
		return scores
	}

	// Document frequency per query term
	df := make(map[string]int, len(queryTerms))
	for _, term := range queryTerms {
		term = strings.ToLower(term)
		for _, terms := range docTerms {
			if containsTerm(terms, term) {
				df[term]++
			}
		}
	}

	n := float64(len(docs))
	for i, terms := range docTerms {
		if len(terms) == 0 {
			continue
		}

		freq := make(map[string]int, len(terms))
		for _, t := range terms {
			freq[t]++
		}

		for _, term := range queryTerms {
			term = strings.ToLower(term)
			tf := float64(freq[term])
			if tf == 0 {
				continue
			}

			idf := math.Log(1 + (n-float64(df[term])+0.5)/(float64(df[term])+0.5))
			norm := s.params.K1 * (1 - s.params.B + s.params.B*float64(len(terms))/avgLen)
			scores[i] += idf * tf * (s.params.K1 + 1) / (tf + norm)
		}
	}

	best := 0.0
	for _, score := range scores {
		if score > best {
			best = score
		}
	}
	if best > 0 {
		for i := range scores {
			scores[i] /= best
		}
	}

	return scores
}

func containsTerm(terms []string, term string) bool {
	for _, t := range terms {
		if t == term {
			return true
		}
	}
	return false
}
