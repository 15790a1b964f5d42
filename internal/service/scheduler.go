package service

import (
	"sync"
	"time"
)

// roundScheduler holds at most one pending answer timer per room. Starting a
// new timer replaces and stops the old one, so restarted rounds never fire a
// stale deadline.
type roundScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newRoundScheduler() *roundScheduler {
	return &roundScheduler{timers: make(map[string]*time.Timer)}
}

// Start arms a timer for roomCode. fn runs on its own goroutine when the
// timer fires; it must re-check room state itself, since the round may have
// advanced before the callback runs.
func (s *roundScheduler) Start(roomCode string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[roomCode]; ok {
		old.Stop()
	}
	s.timers[roomCode] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, roomCode)
		s.mu.Unlock()
		fn()
	})
}

// Stop cancels any pending timer for roomCode.
func (s *roundScheduler) Stop(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[roomCode]; ok {
		t.Stop()
		delete(s.timers, roomCode)
	}
}
