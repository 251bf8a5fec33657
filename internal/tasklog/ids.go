package tasklog

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// IDSource synthesizes identifiers for tasks whose stored id is missing or
// already taken within the batch.
type IDSource interface {
	NextID() ID
}

// IDSourceFunc adapts a plain function to IDSource
type IDSourceFunc func() ID

// NextID calls f
func (f IDSourceFunc) NextID() ID {
	return f()
}

// ClockIDSource combines the wall-clock millisecond with a random fraction.
// Two ids synthesized in the same millisecond collide with negligible
// probability, and a collision is resolved by asking again.
type ClockIDSource struct {
	// Now defaults to time.Now
	Now func() time.Time
}

// NextID returns now-in-milliseconds plus a random fraction in [0, 1).
func (c ClockIDSource) NextID() ID {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return ID(float64(now().UnixMilli()) + rand.Float64())
}

// SequenceIDSource hands out start, start+1, start+2, ... and is safe for
// concurrent use. It makes normalization fully deterministic.
type SequenceIDSource struct {
	mu   sync.Mutex
	next ID
}

// NewSequenceIDSource creates a sequence starting at start
func NewSequenceIDSource(start ID) *SequenceIDSource {
	return &SequenceIDSource{next: start}
}

// NextID returns the next value of the sequence
func (s *SequenceIDSource) NextID() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	return id
}

// maxSynthesisAttempts bounds how often a source is asked for a fresh id
// before falling back to probing upward from the last candidate.
const maxSynthesisAttempts = 64

// idSet tracks the identifiers handed out during one Normalize call.
type idSet struct {
	src  IDSource
	seen map[ID]struct{}
}

func newIDSet(src IDSource) *idSet {
	return &idSet{src: src, seen: make(map[ID]struct{})}
}

func (s *idSet) has(id ID) bool {
	_, ok := s.seen[id]
	return ok
}

// claim resolves the id for one record and marks it as seen.
func (s *idSet) claim(stored any) ID {
	id, ok := candidateID(stored)
	if !ok {
		id = s.src.NextID()
	}

	for attempt := 0; s.has(id) && attempt < maxSynthesisAttempts; attempt++ {
		id = s.src.NextID()
	}
	// A source stuck on one value must not loop forever.
	for s.has(id) {
		next := id + 1
		if next == id {
			next = ID(math.Nextafter(float64(id), math.Inf(1)))
		}
		id = next
	}

	s.seen[id] = struct{}{}
	return id
}
