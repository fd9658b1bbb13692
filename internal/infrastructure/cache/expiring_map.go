package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = 30 * time.Second
)

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// expiringMap is a concurrent map whose entries expire after a TTL.
// A background goroutine sweeps expired entries until Stop is called.
type expiringMap[K comparable, V any] struct {
	entries sync.Map // map[K]*cacheEntry[V]
	now     func() time.Time
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

func newExpiringMap[K comparable, V any](cleanupInterval time.Duration) *expiringMap[K, V] {
	m := &expiringMap[K, V]{
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	go m.cleanupExpired(cleanupInterval)
	return m
}

func (m *expiringMap[K, V]) get(key K) (V, bool) {
	if value, ok := m.entries.Load(key); ok {
		entry := value.(*cacheEntry[V])
		if !entry.isExpired(m.now()) {
			atomic.AddInt64(&m.hits, 1)
			return entry.value, true
		}
		m.entries.Delete(key)
	}
	atomic.AddInt64(&m.misses, 1)
	var zero V
	return zero, false
}

func (m *expiringMap[K, V]) set(key K, value V, ttl time.Duration) {
	m.entries.Store(key, &cacheEntry[V]{value: value, expiresAt: m.now().Add(ttl)})
}

func (m *expiringMap[K, V]) delete(key K) {
	m.entries.Delete(key)
}

// deleteFunc removes every entry whose key matches
func (m *expiringMap[K, V]) deleteFunc(match func(K) bool) {
	m.entries.Range(func(k, _ any) bool {
		if match(k.(K)) {
			m.entries.Delete(k)
		}
		return true
	})
}

func (m *expiringMap[K, V]) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := m.now()
			m.entries.Range(func(k, v any) bool {
				if v.(*cacheEntry[V]).isExpired(now) {
					m.entries.Delete(k)
				}
				return true
			})
		case <-m.stopCh:
			return
		}
	}
}

// stop ends the cleanup goroutine. Safe to call more than once.
func (m *expiringMap[K, V]) stop() {
	if atomic.CompareAndSwapInt32(&m.stopped, 0, 1) {
		close(m.stopCh)
	}
}

// Stats reports hit and miss counts of an in-memory cache
type Stats struct {
	Hits   int64
	Misses int64
}

func (m *expiringMap[K, V]) stats() Stats {
	return Stats{Hits: atomic.LoadInt64(&m.hits), Misses: atomic.LoadInt64(&m.misses)}
}
