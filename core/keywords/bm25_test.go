package keywords

import (
	"testing"

	"github.com/cbrandt/rescore/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBM25Scorer(t *testing.T) {
	t.Run("Documents with query terms outrank documents without", func(t *testing.T) {
		scorer := NewBM25Scorer(model.BM25Params{K1: 1.2, B: 0.75})
		docs := []string{
			"the dragon guards the mountain hoard",
			"a quiet village by the river",
			"the dragon breathes fire on the village",
		}

		scores := scorer.Score([]string{"dragon"}, docs)

		require.Len(t, scores, 3)
		assert.Greater(t, scores[0], scores[1])
		assert.Greater(t, scores[2], scores[1])
		assert.Equal(t, 0.0, scores[1])
	})

	t.Run("Scores are normalized to the unit range", func(t *testing.T) {
		scorer := NewBM25Scorer(model.BM25Params{K1: 1.2, B: 0.75})
		docs := []string{"dragon dragon dragon", "dragon", "nothing relevant"}

		scores := scorer.Score([]string{"dragon"}, docs)

		best := 0.0
		for _, s := range scores {
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
			if s > best {
				best = s
			}
		}
		assert.Equal(t, 1.0, best, "best document should score exactly 1.0")
	})

	t.Run("Empty query yields zero scores", func(t *testing.T) {
		scorer := NewBM25Scorer(model.BM25Params{K1: 1.2, B: 0.75})

		scores := scorer.Score(nil, []string{"some document"})

		require.Len(t, scores, 1)
		assert.Equal(t, 0.0, scores[0])
	})

	t.Run("Empty corpus yields empty scores", func(t *testing.T) {
		scorer := NewBM25Scorer(model.BM25Params{K1: 1.2, B: 0.75})

		scores := scorer.Score([]string{"dragon"}, nil)

		assert.Empty(t, scores)
	})

	t.Run("Invalid parameters fall back to defaults", func(t *testing.T) {
		scorer := NewBM25Scorer(model.BM25Params{K1: -1, B: 5})

		assert.Equal(t, 1.2, scorer.params.K1)
		assert.Equal(t, 0.75, scorer.params.B)
	})
}
