package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbrandt/rescore/model"
)

func TestApplyDedupe(t *testing.T) {
	p := newTestPipeline()
	settings := model.DefaultSettings()

	t.Run("Empty context window suppresses nothing", func(t *testing.T) {
		qc := newTestQuery("q")
		snap := makeSnapshot(model.StageAfterConditions, makeCandidate("a", 0, 0.9))

		survivors, dropped, suppressed := p.applyDedupe(snap, qc, &settings)

		assert.Len(t, survivors, 1)
		assert.Empty(t, dropped)
		assert.Equal(t, 0, suppressed)
	})

	t.Run("Drops candidates already present in the context", func(t *testing.T) {
		qc := newTestQuery("q")
		qc.RecentMessages = []string{
			"and then she said chunk a to everyone",
			"something unrelated",
		}
		snap := makeSnapshot(model.StageAfterConditions,
			makeCandidate("a", 0, 0.9),
			makeCandidate("b", 1, 0.8),
		)

		survivors, dropped, suppressed := p.applyDedupe(snap, qc, &settings)

		require.Len(t, survivors, 1)
		assert.Equal(t, "b", survivors[0].Hash)
		assert.Contains(t, dropped["a"], "already present")
		assert.Equal(t, 1, suppressed)
	})

	t.Run("Matching ignores case and whitespace runs", func(t *testing.T) {
		qc := newTestQuery("q")
		qc.RecentMessages = []string{"...CHUNK   A..."}
		snap := makeSnapshot(model.StageAfterConditions, makeCandidate("a", 0, 0.9))

		_, _, suppressed := p.applyDedupe(snap, qc, &settings)

		assert.Equal(t, 1, suppressed)
	})

	t.Run("Deduplication depth limits the window", func(t *testing.T) {
		limited := settings
		limited.DeduplicationDepth = 1

		qc := newTestQuery("q")
		qc.RecentMessages = []string{
			"nothing to see here",
			"old message containing chunk a verbatim",
		}
		snap := makeSnapshot(model.StageAfterConditions, makeCandidate("a", 0, 0.9))

		survivors, _, suppressed := p.applyDedupe(snap, qc, &limited)

		assert.Len(t, survivors, 1, "the matching message is beyond the depth limit")
		assert.Equal(t, 0, suppressed)
	})
}
