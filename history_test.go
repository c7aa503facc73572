package rescore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbrandt/rescore/model"
)

func reportNamed(text string) *model.Report {
	return &model.Report{QueryText: text}
}

func TestHistory(t *testing.T) {
	t.Run("Keeps reports in insertion order", func(t *testing.T) {
		h := NewHistory(5)
		h.Add(reportNamed("one"))
		h.Add(reportNamed("two"))
		h.Add(reportNamed("three"))

		reports := h.Reports()
		require.Len(t, reports, 3)
		assert.Equal(t, "one", reports[0].QueryText)
		assert.Equal(t, "three", reports[2].QueryText)
		assert.Equal(t, "three", h.Last().QueryText)
	})

	t.Run("Evicts the oldest report on overflow", func(t *testing.T) {
		h := NewHistory(HistorySize)
		for i := 0; i < HistorySize+3; i++ {
			h.Add(reportNamed(fmt.Sprintf("query %d", i)))
		}

		reports := h.Reports()
		require.Len(t, reports, HistorySize)
		assert.Equal(t, "query 3", reports[0].QueryText, "the three oldest reports are evicted")
		assert.Equal(t, fmt.Sprintf("query %d", HistorySize+2), h.Last().QueryText)
	})

	t.Run("Invalid capacity falls back to the default", func(t *testing.T) {
		h := NewHistory(0)
		for i := 0; i < 2*HistorySize; i++ {
			h.Add(reportNamed(fmt.Sprintf("query %d", i)))
		}

		assert.Equal(t, HistorySize, h.Len())
	})

	t.Run("Ignores nil reports", func(t *testing.T) {
		h := NewHistory(3)
		h.Add(nil)

		assert.Equal(t, 0, h.Len())
		assert.Nil(t, h.Last())
	})

	t.Run("Safe under concurrent writers", func(t *testing.T) {
		h := NewHistory(HistorySize)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					h.Add(reportNamed(fmt.Sprintf("worker %d query %d", worker, j)))
					_ = h.Reports()
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, HistorySize, h.Len())
	})
}
