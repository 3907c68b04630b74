package cache

import (
	"context"
	"sync"
	"time"
)

const janitorInterval = time.Minute

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache bounded by total value size. When an
// insert would exceed the budget, the entries closest to expiry are evicted
// first.
type MemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]entry
	size     int64
	maxSize  int64
	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryCache creates a cache holding at most maxSizeMB of values. A
// background janitor drops expired entries; call Stop to end it.
func NewMemoryCache(maxSizeMB int64) *MemoryCache {
	if maxSizeMB <= 0 {
		maxSizeMB = 1
	}
	mc := &MemoryCache{
		entries: make(map[string]entry),
		maxSize: maxSizeMB * 1024 * 1024,
		stop:    make(chan struct{}),
	}
	go mc.janitor()
	return mc
}

func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	mc.mu.RLock()
	e, ok := mc.entries[key]
	mc.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		mc.mu.Lock()
		mc.remove(key)
		mc.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if int64(len(value)) > mc.maxSize {
		return nil
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.remove(key)
	for mc.size+int64(len(value)) > mc.maxSize {
		mc.evictSoonest()
	}
	mc.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	mc.size += int64(len(value))
	return nil
}

func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.remove(key)
	return nil
}

// Stop ends the background janitor
func (mc *MemoryCache) Stop() {
	mc.stopOnce.Do(func() { close(mc.stop) })
}

// remove deletes key and adjusts the size accounting. Caller holds the lock.
func (mc *MemoryCache) remove(key string) {
	if e, ok := mc.entries[key]; ok {
		mc.size -= int64(len(e.value))
		delete(mc.entries, key)
	}
}

// evictSoonest drops the entry closest to expiry. Caller holds the lock.
func (mc *MemoryCache) evictSoonest() {
	var victim string
	var soonest time.Time
	for key, e := range mc.entries {
		if victim == "" || e.expiresAt.Before(soonest) {
			victim = key
			soonest = e.expiresAt
		}
	}
	if victim == "" {
		return
	}
	mc.remove(victim)
}

func (mc *MemoryCache) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			now := time.Now()
			mc.mu.Lock()
			for key, e := range mc.entries {
				if now.After(e.expiresAt) {
					mc.remove(key)
				}
			}
			mc.mu.Unlock()
		}
	}
}
