package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	t.Parallel()

	tracker := NewTracker("30m0s")
	got := tracker.Get()
	assert.Equal(t, SyncPhasePending, got.Phase)
	assert.Equal(t, "30m0s", got.SyncSchedule)

	tracker.Update(func(s *SyncStatus) {
		s.Phase = SyncPhaseComplete
		s.Lists = []ListStatus{{Name: "local", Type: "file", Count: 2}}
	})

	got = tracker.Get()
	assert.Equal(t, SyncPhaseComplete, got.Phase)

	// Callers cannot reach into the tracked slice.
	got.Lists[0].Name = "changed"
	assert.Equal(t, "local", tracker.Get().Lists[0].Name)
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	tracker := NewTracker("")
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tracker.Update(func(s *SyncStatus) { s.AttemptCount = i })
		}()
		go func() {
			defer wg.Done()
			_ = tracker.Get()
		}()
	}
	wg.Wait()
}
