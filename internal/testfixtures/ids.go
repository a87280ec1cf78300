package testfixtures

import (
	"fmt"
	"sync"
)

// IDSequence hands out deterministic identifiers with an independent counter
// per prefix, so rooms and bookings number from 1 separately.
type IDSequence struct {
	mu       sync.Mutex
	counters map[string]int
}

func NewIDSequence() *IDSequence {
	return &IDSequence{counters: make(map[string]int)}
}

// Next returns the next identifier for prefix, e.g. "room-1".
func (s *IDSequence) Next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[prefix]++
	return fmt.Sprintf("%s-%d", prefix, s.counters[prefix])
}

// Func binds Next to prefix for injection as an id generator.
func (s *IDSequence) Func(prefix string) func() string {
	return func() string { return s.Next(prefix) }
}

// Reset restarts every counter.
func (s *IDSequence) Reset() {
	s.mu.Lock()
	s.counters = make(map[string]int)
	s.mu.Unlock()
}
