// Package fixture holds the in-memory datasets the resource clients fall
// back to when a backend cannot be reached. A Store is owned by whoever
// constructs it and lives as long as that owner; writes made while a
// backend is down accumulate in it until Reset is called.
package fixture

import "sync"

// Store is a thread-safe, insertion-ordered collection of records keyed by
// an identifier extracted with idOf.
type Store[R any, I comparable] struct {
	mu    sync.RWMutex
	idOf  func(R) I
	seed  []R
	items []R
}

// NewStore creates a store holding a copy of seed.
func NewStore[R any, I comparable](idOf func(R) I, seed ...R) *Store[R, I] {
	s := &Store[R, I]{
		idOf: idOf,
		seed: append([]R(nil), seed...),
	}
	s.items = append([]R(nil), seed...)
	return s
}

// List returns at most limit records in insertion order. A non-positive
// limit returns all of them.
func (s *Store[R, I]) List(limit int) []R {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]R, n)
	copy(out, s.items[:n])
	return out
}

// Find performs a linear scan for id.
func (s *Store[R, I]) Find(id I) (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	var zero R
	return zero, false
}

// Contains reports whether a record with id exists.
func (s *Store[R, I]) Contains(id I) bool {
	_, ok := s.Find(id)
	return ok
}

// AppendNew assigns an id with newID, which is called with the lock held
// and may consult exists, then appends the record returned by withID. The
// check and the insert happen atomically so concurrent writers cannot pick
// the same id.
func (s *Store[R, I]) AppendNew(r R, newID func(exists func(I) bool) I, withID func(R, I) R) R {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID(func(candidate I) bool { return s.indexOf(candidate) >= 0 })
	rec := withID(r, id)
	s.items = append(s.items, rec)
	return rec
}

// Update replaces the record matching id with fn(record) in place.
func (s *Store[R, I]) Update(id I, fn func(R) R) (R, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		var zero R
		return zero, false
	}
	s.items[i] = fn(s.items[i])
	return s.items[i], true
}

// Remove deletes the record matching id, reporting whether one existed.
func (s *Store[R, I]) Remove(id I) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// Reset discards every write and restores the seed records.
func (s *Store[R, I]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]R(nil), s.seed...)
}

func (s *Store[R, I]) indexOf(id I) int {
	for i, r := range s.items {
		if s.idOf(r) == id {
			return i
		}
	}
	return -1
}
