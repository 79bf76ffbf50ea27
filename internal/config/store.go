package config

import "sync/atomic"

// Store holds the live shading snapshot. Writers publish whole snapshots;
// the frame loop reads one per frame.
type Store struct {
	current atomic.Pointer[Shading]
}

// NewStore creates a store holding s.
func NewStore(s Shading) *Store {
	st := &Store{}
	st.Set(s)
	return st
}

// Snapshot returns the current shading snapshot.
func (s *Store) Snapshot() Shading {
	if p := s.current.Load(); p != nil {
		return *p
	}
	return Shading{Lighting: DefaultLighting(), Shader: DefaultShader()}
}

// Set publishes a new snapshot.
func (s *Store) Set(sh Shading) {
	s.current.Store(&sh)
}

// Update applies fn to a copy of the current snapshot and publishes it.
func (s *Store) Update(fn func(*Shading)) {
	for {
		old := s.current.Load()
		var next Shading
		if old != nil {
			next = *old
		} else {
			next = s.Snapshot()
		}
		fn(&next)
		if s.current.CompareAndSwap(old, &next) {
			return
		}
	}
}
