// Package history maintains bounded per-interface rolling sample buffers
// that drive the live sparkline charts.
package history

import (
	"sync"

	"github.com/user/routerpulse/internal/model"
)

// DefaultCapacity is the number of samples kept per interface.
const DefaultCapacity = 60

// Store holds, per entity key, the most recent samples in arrival order.
// Once a buffer reaches capacity each append evicts exactly the oldest
// sample. Only the stream ingestion component writes; all views read.
type Store struct {
	mu       sync.RWMutex
	capacity int
	samples  map[string][]model.InterfaceStats
}

// NewStore creates a store keeping up to capacity samples per key.
// A non-positive capacity falls back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		samples:  make(map[string][]model.InterfaceStats),
	}
}

// Append adds one sample under its interface key, evicting the oldest
// entry if the buffer is full.
func (s *Store) Append(sample model.InterfaceStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(sample)
}

// AppendAll adds every sample of one snapshot under a single lock so a
// reader never observes a partially applied snapshot.
func (s *Store) AppendAll(samples []model.InterfaceStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sample := range samples {
		s.appendLocked(sample)
	}
}

func (s *Store) appendLocked(sample model.InterfaceStats) {
	buf := append(s.samples[sample.Interface], sample)
	if len(buf) > s.capacity {
		buf = buf[1:]
	}
	s.samples[sample.Interface] = buf
}

// Get returns a copy of the buffered samples for a key, oldest first.
// Unknown keys return nil.
func (s *Store) Get(key string) []model.InterfaceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.samples[key]
	if buf == nil {
		return nil
	}
	out := make([]model.InterfaceStats, len(buf))
	copy(out, buf)
	return out
}

// Len returns the number of buffered samples for a key.
func (s *Store) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples[key])
}

// Keys returns all interface keys with at least one sample.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.samples))
	for k := range s.samples {
		keys = append(keys, k)
	}
	return keys
}

// Latest returns the newest sample for a key, if any.
func (s *Store) Latest(key string) (model.InterfaceStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.samples[key]
	if len(buf) == 0 {
		return model.InterfaceStats{}, false
	}
	return buf[len(buf)-1], true
}

// Clear drops all buffered samples. Called only on session teardown;
// reconnects keep accumulated history.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = make(map[string][]model.InterfaceStats)
}
