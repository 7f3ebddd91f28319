package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
)

var errStoreDown = errors.New("store down")

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockStorage honors first-increment-anchored TTLs against the fake clock and
// can be flipped into a failing state to exercise fail-open paths.
type mockStorage struct {
	mu       sync.Mutex
	clock    *fakeClock
	counters map[string]*mockCounter
	blocks   map[string]time.Time
	failing  bool
}

type mockCounter struct {
	count     int64
	expiresAt time.Time
}

func newMockStorage(clock *fakeClock) *mockStorage {
	return &mockStorage{
		clock:    clock,
		counters: make(map[string]*mockCounter),
		blocks:   make(map[string]time.Time),
	}
}

func (m *mockStorage) fail(failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = failing
}

func (m *mockStorage) Increment(_ context.Context, key string, window time.Duration) (domain.Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failing {
		return domain.Counter{}, errStoreDown
	}

	now := m.clock.Now()
	entry, ok := m.counters[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &mockCounter{expiresAt: now.Add(window)}
		m.counters[key] = entry
	}
	entry.count++
	return domain.Counter{Count: entry.count, ResetAt: entry.expiresAt}, nil
}

func (m *mockStorage) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failing {
		return errStoreDown
	}
	delete(m.counters, key)
	return nil
}

func (m *mockStorage) IsBlocked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failing {
		return false, errStoreDown
	}
	expiresAt, ok := m.blocks[key]
	if !ok {
		return false, nil
	}
	if !m.clock.Now().Before(expiresAt) {
		delete(m.blocks, key)
		return false, nil
	}
	return true, nil
}

func (m *mockStorage) SetBlock(_ context.Context, key string, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failing {
		return errStoreDown
	}
	if duration <= 0 {
		delete(m.blocks, key)
		return nil
	}
	m.blocks[key] = m.clock.Now().Add(duration)
	return nil
}
