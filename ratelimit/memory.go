package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process counter backend for single-instance
// deployments. Each process counts independently, so it must not be used
// behind a load balancer; use [RedisStore] there instead.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

// NewMemoryStore returns a MemoryStore and starts a background sweep that
// drops expired windows. Call Stop when the store is no longer needed.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go s.sweepLoop(time.Minute)

	return s
}

// Stop terminates the background sweep goroutine.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Incr implements [Store]. Increment and window rollover happen under one
// lock, so concurrent callers cannot lose updates.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &memoryWindow{resetAt: now.Add(window)}
		s.windows[key] = w
	}
	w.count++

	return w.count, w.resetAt, nil
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
}
