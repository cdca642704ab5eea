package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cratey/cratey/internal/domain"
)

// Memory is the single-instance limiter used when no Redis is configured.
type Memory struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func NewMemory(window time.Duration) *Memory {
	return &Memory{window: window, last: map[string]time.Time{}, now: time.Now}
}

func (m *Memory) Allow(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if at, ok := m.last[key]; ok {
		if wait := m.window - now.Sub(at); wait > 0 {
			return &domain.RateLimitError{RetryAfter: wait}
		}
	}
	m.last[key] = now
	if len(m.last) > 10000 {
		for k, at := range m.last {
			if now.Sub(at) >= m.window {
				delete(m.last, k)
			}
		}
	}
	return nil
}
