package cache

import (
	"sync"
	"time"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

// SeriesStore is an in-memory TTL cache for series metadata. Series change
// rarely while the worker fleet fetches them on every episode of a batch,
// so short-lived caching removes most of the repeat lookups.
type SeriesStore struct {
	mu    sync.RWMutex
	items map[string]*seriesItem
	ttl   time.Duration
}

type seriesItem struct {
	series     *entities.Series
	expireTime time.Time
}

// NewSeriesStore creates a series cache with the given TTL.
func NewSeriesStore(ttl time.Duration) *SeriesStore {
	store := &SeriesStore{
		items: make(map[string]*seriesItem),
		ttl:   ttl,
	}

	go store.cleanupExpired()

	return store
}

// Set stores a series.
func (ss *SeriesStore) Set(id string, series *entities.Series) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.items[id] = &seriesItem{
		series:     series,
		expireTime: time.Now().Add(ss.ttl),
	}
}

// Get retrieves a series by ID, reporting a miss when absent or expired.
func (ss *SeriesStore) Get(id string) (*entities.Series, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	item, exists := ss.items[id]
	if !exists {
		return nil, false
	}

	if time.Now().After(item.expireTime) {
		return nil, false
	}

	return item.series, true
}

// Delete removes a series.
func (ss *SeriesStore) Delete(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	delete(ss.items, id)
}

// cleanupExpired periodically removes expired items
func (ss *SeriesStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ss.mu.Lock()
		now := time.Now()
		for id, item := range ss.items {
			if now.After(item.expireTime) {
				delete(ss.items, id)
			}
		}
		ss.mu.Unlock()
	}
}
