package stats

import (
	"sync"
	"time"
)

// Cache memoizes computed dashboard stats per date range. Any mutation to
// transactions or rules must call Invalidate; stats are always safe to
// recompute from scratch.
type Cache struct {
	mu      sync.Mutex
	entries map[string]DashboardStats
}

func NewCache() *Cache {
	return &Cache{
		entries: map[string]DashboardStats{},
	}
}

// Key derives the cache key for a date range. A zero bound means the
// range is open on that side.
func Key(start, end time.Time) string {
	const layout = "2006-01-02"

	key := ""
	if !start.IsZero() {
		key = start.Format(layout)
	}
	key += "/"
	if !end.IsZero() {
		key += end.Format(layout)
	}
	return key
}

func (c *Cache) Get(key string) (DashboardStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.entries[key]
	return stats, ok
}

func (c *Cache) Put(key string, stats DashboardStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = stats
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = map[string]DashboardStats{}
}
