package loader

import (
	"sort"
	"sync"
	"time"
)

// EventType identifies one step of a loader run.
type EventType string

const (
	// EventModuleSkipped fires when a module's flag is off.
	EventModuleSkipped EventType = "module.skipped"
	// EventModuleLoaded fires after every resource of a module is satisfied.
	EventModuleLoaded EventType = "module.loaded"
	// EventModuleFailed fires when a resource fetch fails or times out.
	EventModuleFailed EventType = "module.failed"
	// EventRunCompleted is the terminal event of a run that exhausted the
	// catalog without tripping the breaker.
	EventRunCompleted EventType = "run.completed"
	// EventRunEmergencyStopped is the terminal event of a run that hit the
	// error threshold.
	EventRunEmergencyStopped EventType = "run.emergency_stopped"
)

// Event is delivered synchronously to subscribers, in run order.
type Event struct {
	Type        EventType
	RunID       string
	Module      string
	Reason      string
	OccurredAt  time.Time
	LoadedCount int
	ErrorCount  int
	// Flags carries the final flag snapshot; set on terminal events only.
	Flags map[string]bool
}

// subscribers is a small synchronous fan-out registry. Callbacks run on the
// loader goroutine so ordering matches the run.
type subscribers struct {
	mu   sync.Mutex
	next uint64
	fns  map[uint64]func(Event)
}

func (s *subscribers) subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[uint64]func(Event))
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers) publish(evt Event) {
	s.mu.Lock()
	ids := make([]uint64, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.fns[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(evt)
	}
}
