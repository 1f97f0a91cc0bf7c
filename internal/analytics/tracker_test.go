package analytics

import (
	"sync"
	"testing"

	"Dormant/internal/models"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()
	if tracker == nil {
		t.Fatal("NewTracker() returned nil")
	}

	if _, ok := tracker.LastPass(); ok {
		t.Error("expected no pass before the first RecordPass")
	}
	if tracker.Passes() != 0 {
		t.Errorf("expected 0 passes, got %d", tracker.Passes())
	}
}

func TestRecordPass(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordPass(models.PassSummary{ID: "first"})
	tracker.RecordPass(models.PassSummary{
		ID: "second",
		Kinds: []models.KindSummary{
			{Kind: "ec2", Started: []string{"i-1"}},
		},
	})

	got, ok := tracker.LastPass()
	if !ok {
		t.Fatal("expected a recorded pass")
	}
	if got.ID != "second" {
		t.Errorf("expected latest pass 'second', got %s", got.ID)
	}
	if len(got.Started()) != 1 {
		t.Errorf("expected 1 started instance, got %v", got.Started())
	}
	if tracker.Passes() != 2 {
		t.Errorf("expected 2 passes, got %d", tracker.Passes())
	}
}

func TestConcurrentAccess(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tracker.RecordPass(models.PassSummary{ID: "p"})
		}()
		go func() {
			defer wg.Done()
			tracker.LastPass()
		}()
	}
	wg.Wait()

	if tracker.Passes() != 10 {
		t.Errorf("expected 10 passes, got %d", tracker.Passes())
	}
}
