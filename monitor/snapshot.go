package monitor

import (
	"sync"
	"time"

	"github.com/theoremus-urban-solutions/siri-departures/departures"
)

// Snapshot is the outcome of the latest refresh.
type Snapshot struct {
	Departures departures.Result
	UpdatedAt  time.Time
	// Err is the error of the latest refresh; Departures then still holds the last good data.
	Err error
}

// Available reports whether stopID was part of a successful latest refresh.
func (s Snapshot) Available(stopID string) bool {
	if s.Err != nil {
		return false
	}
	_, ok := s.Departures[stopID]
	return ok
}

// Store holds the current Snapshot.
type Store struct {
	mu       sync.RWMutex
	current  Snapshot
	attempts int
}

// Get returns the current snapshot.
func (s *Store) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) succeed(result departures.Result, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	s.current = Snapshot{Departures: result, UpdatedAt: at}
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	s.current.Err = err
}

// Attempts counts refreshes recorded so far, successful or not.
func (s *Store) Attempts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts
}
