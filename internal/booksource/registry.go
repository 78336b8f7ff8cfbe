package booksource

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable view of the registry.
type Snapshot struct {
	order       []string
	entries     map[string]Definition
	fingerprint string
	generation  uint64
}

// newSnapshot builds a snapshot from defs in order. A code seen twice keeps its
// first position and takes the later content.
func newSnapshot(defs []Definition, generation uint64) *Snapshot {
	s := &Snapshot{
		order:      make([]string, 0, len(defs)),
		entries:    make(map[string]Definition, len(defs)),
		generation: generation,
	}
	for _, def := range defs {
		if _, seen := s.entries[def.Code]; !seen {
			s.order = append(s.order, def.Code)
		}
		s.entries[def.Code] = def
	}
	s.fingerprint = fingerprintOf(s.entries)
	return s
}

// fingerprintOf hashes entries sorted by code so the digest does not depend on
// insertion order.
func fingerprintOf(entries map[string]Definition) string {
	codes := make([]string, 0, len(entries))
	for code := range entries {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	h := sha256.New()
	for _, code := range codes {
		h.Write([]byte(code))
		h.Write([]byte{0})
		h.Write(entries[code].Raw)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the definition registered under code.
func (s *Snapshot) Get(code string) (Definition, bool) {
	def, ok := s.entries[code]
	return def, ok
}

// List returns the definitions in insertion order.
func (s *Snapshot) List() []Definition {
	defs := make([]Definition, 0, len(s.order))
	for _, code := range s.order {
		defs = append(defs, s.entries[code])
	}
	return defs
}

// Fingerprint returns the content digest of the snapshot.
func (s *Snapshot) Fingerprint() string {
	return s.fingerprint
}

// Len returns the number of definitions.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// Generation counts the mutations that led to this snapshot. Zero means the
// registry has never been loaded.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// Registry is the process-wide set of book-source definitions.
//
// Readers never lock: every mutation builds a new Snapshot and publishes it
// with an atomic swap, so a reader sees either the old or the new set, never a
// mix. Writers are serialized with mu.
type Registry struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// NewRegistry creates an empty, not yet loaded registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(newSnapshot(nil, 0))
	return r
}

// Snapshot returns the current snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Get returns the definition registered under code.
func (r *Registry) Get(code string) (Definition, bool) {
	return r.Snapshot().Get(code)
}

// List returns all definitions in insertion order.
func (r *Registry) List() []Definition {
	return r.Snapshot().List()
}

// Fingerprint returns the content digest over all definitions.
func (r *Registry) Fingerprint() string {
	return r.Snapshot().Fingerprint()
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return r.Snapshot().Len()
}

// Loaded reports whether the registry has been populated at least once.
func (r *Registry) Loaded() bool {
	return r.Snapshot().Generation() > 0
}

// Replace publishes a new snapshot holding exactly defs.
func (r *Registry) Replace(defs []Definition) (*Snapshot, error) {
	for i, def := range defs {
		if def.Code == "" {
			return nil, fmt.Errorf("definition at index %d has no code", i)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := newSnapshot(defs, r.current.Load().generation+1)
	r.current.Store(next)
	return next, nil
}

// Put adds def, or replaces the definition with the same code in place.
func (r *Registry) Put(def Definition) (*Snapshot, error) {
	if def.Code == "" {
		return nil, fmt.Errorf("definition has no code")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	next := newSnapshot(append(cur.List(), def), cur.generation+1)
	r.current.Store(next)
	return next, nil
}

// Delete removes the definition registered under code. It reports whether
// anything was removed.
func (r *Registry) Delete(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	if _, ok := cur.entries[code]; !ok {
		return false
	}
	defs := slices.DeleteFunc(cur.List(), func(d Definition) bool { return d.Code == code })
	r.current.Store(newSnapshot(defs, cur.generation+1))
	return true
}
