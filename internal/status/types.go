// Package status tracks the state of book source list synchronization.
package status

import (
	"slices"
	"sync"
	"time"
)

// SyncPhase represents the current phase of a synchronization operation
type SyncPhase string

const (
	// SyncPhasePending means no sync has run yet
	SyncPhasePending SyncPhase = "Pending"

	// SyncPhaseSyncing means sync is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means sync completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means sync failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus represents the current state of registry synchronization
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty"`

	// RunID identifies the most recent sync run in logs
	RunID string `json:"runId,omitempty"`

	// LastAttempt is the timestamp of the last sync attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of sync attempts since last success
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last successful sync
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// LastSyncHash is the combined hash of the lists merged by the last successful sync
	LastSyncHash string `json:"lastSyncHash,omitempty"`

	// SourceCount is the number of definitions in the registry after the last sync
	SourceCount int `json:"sourceCount"`

	// SyncSchedule is the sync interval, e.g. "30m0s"
	SyncSchedule string `json:"syncSchedule,omitempty"`

	// Lists holds the outcome of the last fetch of each configured list, in config order
	Lists []ListStatus `json:"lists,omitempty"`
}

// ListStatus is the outcome of fetching one source list
type ListStatus struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Hash  string `json:"hash,omitempty"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`

	// Stale is set when the fetch failed and the previous content of the list was kept
	Stale bool `json:"stale,omitempty"`
}

// Tracker guards a SyncStatus shared between the sync loop and its readers.
type Tracker struct {
	mu     sync.RWMutex
	status SyncStatus
}

// NewTracker returns a tracker in the pending phase.
func NewTracker(schedule string) *Tracker {
	return &Tracker{status: SyncStatus{Phase: SyncPhasePending, SyncSchedule: schedule}}
}

// Update applies fn to the status under the write lock.
func (t *Tracker) Update(fn func(*SyncStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.status)
}

// Get returns a copy of the status.
func (t *Tracker) Get() SyncStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := t.status
	out.Lists = slices.Clone(t.status.Lists)
	return out
}
