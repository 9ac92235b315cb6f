package view

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of views kept when none is configured.
const DefaultCapacity = 256

// Store keeps the most recent views in memory. The oldest view is evicted once
// the capacity is reached.
type Store struct {
	mu       sync.RWMutex
	capacity int
	views    map[uuid.UUID]*View
	order    []uuid.UUID
}

// NewStore creates a Store holding at most capacity views.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, views: make(map[uuid.UUID]*View, capacity)}
}

// Put stores v, evicting the oldest view when full.
func (s *Store) Put(v *View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.views[v.ID]; ok {
		s.views[v.ID] = v
		return
	}
	for len(s.order) >= s.capacity {
		delete(s.views, s.order[0])
		s.order = s.order[1:]
	}
	s.views[v.ID] = v
	s.order = append(s.order, v.ID)
}

// Get returns the view with id.
func (s *Store) Get(id uuid.UUID) (*View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[id]
	return v, ok
}

// Lookup parses id and returns its view.
func (s *Store) Lookup(id string) (*View, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}
	return s.Get(u)
}

// Len returns the number of stored views.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}
