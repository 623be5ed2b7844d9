package location

import (
	"errors"
	"sync"
)

var (
	// ErrNoFix is returned when the host has not reported any fix yet.
	ErrNoFix = errors.New("no location fix reported")
)

// FixStore is a concurrency-safe in-memory record of recent fixes.
type FixStore struct {
	mu sync.RWMutex

	fixes []Fix

	// max number of fixes kept (<= 0 keeps only the latest)
	maxHistory int
}

// NewFixStore creates a FixStore that keeps up to maxHistory fixes.
func NewFixStore(maxHistory int) *FixStore {
	if maxHistory <= 0 {
		maxHistory = 1
	}
	return &FixStore{maxHistory: maxHistory}
}

// Save appends a fix and enforces retention.
func (s *FixStore) Save(fix Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fixes = append(s.fixes, fix)

	if len(s.fixes) > s.maxHistory {
		over := len(s.fixes) - s.maxHistory
		s.fixes = s.fixes[over:]
	}
}

// Latest returns the most recent fix.
func (s *FixStore) Latest() (Fix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.fixes) == 0 {
		return Fix{}, ErrNoFix
	}
	return s.fixes[len(s.fixes)-1], nil
}

// Recent returns a copy of the retained fixes, oldest first.
func (s *FixStore) Recent() []Fix {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Fix, len(s.fixes))
	copy(out, s.fixes)
	return out
}
