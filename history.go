package rescore

import (
	"sync"

	"github.com/cbrandt/rescore/model"
)

// HistorySize is the default capacity of the query history ring
const HistorySize = 13

// History is a bounded FIFO ring of the most recent query reports. When the
// ring is full the oldest report is evicted; there is no recency promotion.
// It is the only state shared across concurrent query runs.
type History struct {
	mu       sync.Mutex
	capacity int
	reports  []*model.Report
}

// NewHistory creates a history ring with the given capacity.
// A capacity below one falls back to HistorySize.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = HistorySize
	}
	return &History{capacity: capacity}
}

// Add appends a report, evicting the oldest one when the ring is full
func (h *History) Add(report *model.Report) {
	if report == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.reports = append(h.reports, report)
	if len(h.reports) > h.capacity {
		h.reports = h.reports[len(h.reports)-h.capacity:]
	}
}

// Len returns the number of stored reports
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.reports)
}

// Reports returns the stored reports, oldest first
func (h *History) Reports() []*model.Report {
	h.mu.Lock()
	defer h.mu.Unlock()

	reports := make([]*model.Report, len(h.reports))
	copy(reports, h.reports)
	return reports
}

// Last returns the most recent report, or nil if the history is empty
func (h *History) Last() *model.Report {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.reports) == 0 {
		return nil
	}
	return h.reports[len(h.reports)-1]
}
