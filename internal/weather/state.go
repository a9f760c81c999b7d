package weather

import (
	"sync"

	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

// FetchState is the weather map for the trip currently being planned. Each index is
// written by exactly one fetch; results carrying a superseded trip id are dropped.
type FetchState struct {
	mu     sync.RWMutex
	tripID string
	obs    t.WeatherMap
}

func NewFetchState() *FetchState {
	return &FetchState{obs: t.WeatherMap{}}
}

// Begin discards any previous trip and starts collecting for tripID.
func (s *FetchState) Begin(tripID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tripID = tripID
	s.obs = t.WeatherMap{}
}

// Put records the observation for index i. A nil observation marks a failed fetch. It
// reports whether the value was accepted.
func (s *FetchState) Put(tripID string, i int, obs *t.Observation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tripID != s.tripID {
		return false
	}
	s.obs[i] = obs
	return true
}

// Snapshot returns a copy that later Puts do not affect.
func (s *FetchState) Snapshot() t.WeatherMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(t.WeatherMap, len(s.obs))
	for k, v := range s.obs {
		snap[k] = v
	}
	return snap
}

// Complete reports whether all indices 0..n-1 have been written, successfully or not.
func (s *FetchState) Complete(n int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := 0; i < n; i++ {
		if _, ok := s.obs[i]; !ok {
			return false
		}
	}
	return true
}
