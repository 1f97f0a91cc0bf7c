package analytics

import (
	"sync"

	"Dormant/internal/models"
)

// Tracker keeps the summary of the most recent pass
type Tracker struct {
	mu     sync.RWMutex
	last   *models.PassSummary
	passes int
}

// NewTracker creates a new analytics tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordPass replaces the stored summary
func (t *Tracker) RecordPass(summary models.PassSummary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = &summary
	t.passes++
}

// LastPass returns the most recent summary, or false before the first pass
func (t *Tracker) LastPass() (models.PassSummary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return models.PassSummary{}, false
	}
	return *t.last, true
}

// Passes returns how many passes were recorded since startup
func (t *Tracker) Passes() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.passes
}
