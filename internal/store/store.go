package store

import (
	"sort"
	"sync"
	"time"

	"energy_dashboard/internal/model"
)

// Store holds what each display slot currently shows, indexed by slot.
type Store struct {
	mu    sync.RWMutex
	slots map[model.Slot]model.SlotValue
}

func New() *Store {
	return &Store{
		slots: make(map[model.Slot]model.SlotValue),
	}
}

// Set records a slot value, replacing whatever the slot showed before.
func (s *Store) Set(v model.SlotValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[v.Slot] = v
}

// Get returns the current value of a slot.
func (s *Store) Get(slot model.Slot) (model.SlotValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.slots[slot]
	return v, ok
}

// Value returns the numeric value a slot last displayed.
func (s *Store) Value(slot model.Slot) (float64, bool) {
	v, ok := s.Get(slot)
	if !ok {
		return 0, false
	}
	return v.Value, true
}

// All returns every slot value sorted by slot name.
func (s *Store) All() []model.SlotValue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([]model.SlotValue, 0, len(s.slots))
	for _, v := range s.slots {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].Slot < values[j].Slot
	})
	return values
}

// Len returns the number of slots that have been written at least once.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Stale returns the slots not updated within maxAge of now, sorted by slot
// name. Stale slots keep their last value; callers decide how to mark them.
func (s *Store) Stale(now time.Time, maxAge time.Duration) []model.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stale []model.Slot
	for slot, v := range s.slots {
		if now.Sub(v.UpdatedAt) > maxAge {
			stale = append(stale, slot)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })
	return stale
}

// Reset forgets every slot.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[model.Slot]model.SlotValue)
}
