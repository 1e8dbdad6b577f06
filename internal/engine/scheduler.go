package engine

import (
	"fmt"
	"sync"
	"time"
)

// Scheduler owns one cancellable one-shot timer per alert id. Fired timers
// remove themselves before running their callback, so Cancel after a fire is
// a harmless no-op.
type Scheduler struct {
	clock  Clock
	mu     sync.Mutex
	timers map[string]Timer
}

func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{
		clock:  clock,
		timers: make(map[string]Timer),
	}
}

// Arm schedules fn to run after delay. Arming an id that already has a live
// timer is an error; callers must Cancel first.
func (s *Scheduler) Arm(id string, delay time.Duration, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.timers[id]; ok {
		return fmt.Errorf("timer already armed for alert %s", id)
	}

	s.timers[id] = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		fn()
	})
	return nil
}

// Cancel stops the timer for id if one is live. Cancelling an unarmed or
// already-fired timer is a no-op.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) Armed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every live timer. Used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
