// Package wishlist tracks the product ids a shopper marked as favorites.
package wishlist

import (
	"slices"
	"sync"
)

// Set is an in-memory set of product ids. The zero value is not usable; call
// New. Ids are not validated against the catalog, so an unknown id is simply
// stored and never matches a product.
type Set struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

// New returns an empty Set.
func New() *Set {
	return &Set{ids: make(map[int64]struct{})}
}

// Toggle removes id if present, adds it otherwise, and reports whether id is
// a member afterwards.
func (s *Set) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.ids[id]
	return ok
}

// List returns the members in ascending order.
func (s *Set) List() []int64 {
	s.mu.RLock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	s.mu.RUnlock()

	slices.Sort(out)
	return out
}

// Len returns the number of members.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.ids)
}
