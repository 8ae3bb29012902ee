package testfixtures

import "sync"

// IDSequence produces deterministic numeric identifiers for tests, matching
// the integer primary keys the backend hands out.
type IDSequence struct {
	mu   sync.Mutex
	next int
}

// NewIDSequence constructs a sequence that yields identifiers starting at
// start. When start is not positive, the sequence begins at 1.
func NewIDSequence(start int) *IDSequence {
	if start <= 0 {
		start = 1
	}
	return &IDSequence{next: start}
}

// Next returns the next identifier in the sequence.
func (s *IDSequence) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	return id
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (s *IDSequence) NextFunc() func() int {
	if s == nil {
		return func() int { return 0 }
	}
	return s.Next
}

// SetNext overrides the upcoming identifier, enabling deterministic resets.
func (s *IDSequence) SetNext(next int) {
	s.mu.Lock()
	s.next = next
	s.mu.Unlock()
}
