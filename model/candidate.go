package model

import "sort"

// FusionMethod identifies how vector and lexical scores were combined
type FusionMethod string

const (
	FusionNone     FusionMethod = ""
	FusionRRF      FusionMethod = "rrf"
	FusionWeighted FusionMethod = "weighted"
)

// Fusion constants. Weighted fusion mixes the two scores with fixed weights;
// RRF uses the standard reciprocal-rank constant.
const (
	WeightedVectorWeight = 0.7
	WeightedTextWeight   = 0.3
	RRFConstant          = 60.0
)

// MatchedKeyword records one keyword that matched the query terms
type MatchedKeyword struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// Candidate is one retrieved chunk with all scoring fields.
// Stages never mutate a candidate in place; they copy, annotate and re-emit.
type Candidate struct {
	Hash  string `json:"hash"`
	Index int    `json:"index"`
	Text  string `json:"text"`

	VectorScore  float64      `json:"vector_score"`
	TextScore    *float64     `json:"text_score,omitempty"`
	FusionMethod FusionMethod `json:"fusion_method,omitempty"`

	// BaseScore is the fused similarity score, set once at intake.
	BaseScore float64 `json:"base_score"`

	KeywordBoost    float64          `json:"keyword_boost"`
	MatchedKeywords []MatchedKeyword `json:"matched_keywords,omitempty"`

	DecayMultiplier float64 `json:"decay_multiplier"`
	MessageAge      int     `json:"message_age"`

	// Score is always BaseScore * KeywordBoost * DecayMultiplier.
	Score float64 `json:"score"`

	Metadata Metadata   `json:"metadata,omitempty"`
	Meta     *ChunkMeta `json:"meta,omitempty"`
}

// ComposeScore replays the multiplicative score composition from the recorded
// fields. Both multipliers are initialized to 1.0 at intake by FuseBaseScores,
// so a genuine zero (a matched keyword with weight 0, a fully decayed age)
// zeroes the score.
func (c *Candidate) ComposeScore() float64 {
	return c.BaseScore * c.KeywordBoost * c.DecayMultiplier
}

// FuseBaseScores sets BaseScore and Score on every candidate according to its
// fusion method. Weighted fusion is a fixed 0.7/0.3 mix of vector and text
// scores; RRF derives the base from the candidate's rank in the vector and
// text orderings, rescaled so the best RRF candidate carries base 1.0.
// Candidates without a text score keep their vector score.
func FuseBaseScores(candidates []Candidate) []Candidate {
	fused := make([]Candidate, len(candidates))
	copy(fused, candidates)

	vectorRanks := rankBy(fused, func(c Candidate) float64 { return c.VectorScore })
	textRanks := rankBy(fused, func(c Candidate) float64 {
		if c.TextScore == nil {
			return 0
		}
		return *c.TextScore
	})

	var rrf []int
	for i := range fused {
		c := &fused[i]
		switch {
		case c.TextScore == nil || c.FusionMethod == FusionNone:
			c.BaseScore = c.VectorScore
		case c.FusionMethod == FusionWeighted:
			c.BaseScore = WeightedVectorWeight*c.VectorScore + WeightedTextWeight*(*c.TextScore)
		case c.FusionMethod == FusionRRF:
			c.BaseScore = 1.0/(RRFConstant+float64(vectorRanks[c.Hash])) +
				1.0/(RRFConstant+float64(textRanks[c.Hash]))
			rrf = append(rrf, i)
		default:
			c.BaseScore = c.VectorScore
		}
	}

	// Raw reciprocal-rank sums top out near 2/(RRFConstant+1), far below the
	// [0,1] range the threshold compares against. Rescale by the best sum so
	// RRF bases share that range and keep their relative order.
	if len(rrf) > 0 {
		best := 0.0
		for _, i := range rrf {
			if fused[i].BaseScore > best {
				best = fused[i].BaseScore
			}
		}
		if best > 0 {
			for _, i := range rrf {
				fused[i].BaseScore /= best
			}
		}
	}

	for i := range fused {
		c := &fused[i]
		if c.KeywordBoost == 0 {
			c.KeywordBoost = 1.0
		}
		if c.DecayMultiplier == 0 {
			c.DecayMultiplier = 1.0
		}
		c.Score = c.ComposeScore()
	}

	return fused
}

// rankBy returns the 1-based rank of every candidate hash under the given
// scoring function, highest score first
func rankBy(candidates []Candidate, score func(Candidate) float64) map[string]int {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return score(candidates[order[a]]) > score(candidates[order[b]])
	})

	ranks := make(map[string]int, len(candidates))
	for rank, idx := range order {
		ranks[candidates[idx].Hash] = rank + 1
	}
	return ranks
}
