package countdown

import (
	"sync"
	"time"
)

// Scheduler manages ephemeral one-shot countdowns keyed by entity. At most
// one countdown is live per key; starting a new one silently replaces any
// prior uncompleted countdown for the same key (its callback never fires).
// Expiry callbacks run exactly once, on their own goroutine.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*Handle
}

// Handle identifies one live countdown.
type Handle struct {
	key       string
	expiresAt time.Time
	timer     *time.Timer
	sched     *Scheduler
	done      bool
}

// New creates a scheduler.
func New() *Scheduler {
	return &Scheduler{entries: make(map[string]*Handle)}
}

// Start begins a one-shot countdown for key. onExpire is invoked once when
// the duration elapses, unless the countdown is cancelled or replaced first.
func (s *Scheduler) Start(key string, d time.Duration, onExpire func()) *Handle {
	s.mu.Lock()
	if prev, ok := s.entries[key]; ok {
		prev.done = true
		prev.timer.Stop()
	}
	h := &Handle{
		key:       key,
		expiresAt: time.Now().Add(d),
		sched:     s,
	}
	h.timer = time.AfterFunc(d, func() {
		if !s.fire(h) {
			return
		}
		onExpire()
	})
	s.entries[key] = h
	s.mu.Unlock()
	return h
}

// fire claims the expiry for h. It returns false when the countdown was
// cancelled or replaced before the timer ran.
func (s *Scheduler) fire(h *Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.done {
		return false
	}
	h.done = true
	if s.entries[h.key] == h {
		delete(s.entries, h.key)
	}
	return true
}

// Cancel stops the countdown for key. It reports whether a live countdown
// was cancelled; after expiry it is a no-op.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.entries[key]
	if !ok || h.done {
		return false
	}
	h.done = true
	h.timer.Stop()
	delete(s.entries, key)
	return true
}

// Remaining returns the time left on the countdown for key.
func (s *Scheduler) Remaining(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.entries[key]
	if !ok || h.done {
		return 0, false
	}
	left := time.Until(h.expiresAt)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Stop cancels every live countdown, typically on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, h := range s.entries {
		h.done = true
		h.timer.Stop()
		delete(s.entries, key)
	}
}

// Stop cancels the countdown this handle refers to. It reports whether
// the countdown was still live: after expiry, or after a newer countdown
// replaced this one under the same key, it is a no-op.
func (h *Handle) Stop() bool {
	s := h.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.done || s.entries[h.key] != h {
		return false
	}
	h.done = true
	h.timer.Stop()
	delete(s.entries, h.key)
	return true
}

// Key returns the countdown's entity key.
func (h *Handle) Key() string {
	return h.key
}
