package fake

import (
	"fmt"
	"sync"
	"time"
)

// Scheduler is an in-memory api.Scheduler. After schedules fn on a
// real timer (the demo entrypoint has no cooperative event loop to
// plug into); Register/Signal are a plain id-keyed callback table.
type Scheduler struct {
	mu       sync.Mutex
	handlers map[int]func(payload any)
	nextID   int
}

// NewScheduler constructs an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{handlers: make(map[int]func(payload any))}
}

// Register installs handler under a fresh signal id.
func (s *Scheduler) Register(handler func(payload any)) (int, error) {
	if handler == nil {
		return 0, fmt.Errorf("fake: nil handler")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.handlers[id] = handler
	return id, nil
}

// Signal delivers payload to the handler registered under id, if any.
func (s *Scheduler) Signal(signalID int, payload any) {
	s.mu.Lock()
	handler := s.handlers[signalID]
	s.mu.Unlock()
	if handler != nil {
		handler(payload)
	}
}

// After schedules fn to run once, at least after d elapses.
func (s *Scheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
