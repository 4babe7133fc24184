package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local fixed-window counter per key. Windows are
// reset lazily on the first request past their expiry; no background
// garbage collection.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	period  time.Duration
	now     func() time.Time
}

func NewMemoryLimiter(period time.Duration) *MemoryLimiter {
	if period <= 0 {
		period = time.Minute
	}
	return &MemoryLimiter{
		windows: make(map[string]*window),
		period:  period,
		now:     time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int) bool {
	if limit <= 0 {
		return true
	}

	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || now.After(w.resetAt) {
		m.windows[key] = &window{count: 1, resetAt: now.Add(m.period)}
		return true
	}

	if w.count >= limit {
		return false
	}
	w.count++
	return true
}
