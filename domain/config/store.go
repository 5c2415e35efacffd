package config

import "sync/atomic"

// Store publishes the active tuning to the pipeline components. Reloads
// replace the whole value through an atomic pointer swap, so a reader
// observes either the old tuning or the new one, never a mix. Loaded
// Tuning values are treated as immutable once stored.
type Store struct {
	current atomic.Pointer[Tuning]
}

// NewStore creates a store holding an initial tuning.
func NewStore(tuning *Tuning) *Store {
	s := &Store{}
	s.current.Store(tuning)
	return s
}

// Current returns the active tuning. Callers that read more than one field
// should snapshot once and use the returned value throughout, so a reload
// mid-operation cannot mix old and new parameters.
func (s *Store) Current() *Tuning {
	return s.current.Load()
}

// Replace swaps in a new tuning.
func (s *Store) Replace(tuning *Tuning) {
	s.current.Store(tuning)
}
