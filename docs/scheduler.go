package docs

import (
	"log/slog"
	"sync"
	"time"
)

// Scheduler manages one cancellable retry timer per package key.
// Scheduling a key that already has a pending timer cancels the old
// one first.
type Scheduler struct {
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewScheduler creates an empty Scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule runs fn after delay under the given key, replacing any
// previously scheduled timer for the key. The key stays registered
// while fn runs, so a retry chain observes itself as rescheduled.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		s.logger.Debug("replaced scheduled task", "key", key)
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		fn()
		s.mu.Lock()
		if s.timers[key] == timer {
			delete(s.timers, key)
		}
		s.mu.Unlock()
	})
	s.timers[key] = timer
}

// Contains reports whether a timer is registered under key.
func (s *Scheduler) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}

// Cancel stops and removes the timer registered under key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
}

// CancelAll stops and removes every registered timer.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}
