package classify

import (
	"strings"
	"sync"
)

// labelCache memoizes single-item classifications for one client's lifetime.
// The classifier can answer differently for the same input on different
// calls, so the cache simply treats the first answer as authoritative for
// the rest of the run. It is owned by a Client instance, never shared
// process-wide, so test runs stay isolated.
type labelCache struct {
	mu     sync.Mutex
	labels map[string]int
	hits   int
	misses int
}

func newLabelCache() *labelCache {
	return &labelCache{labels: make(map[string]int)}
}

func cacheKey(text, category, description string) string {
	return strings.Join([]string{text, category, description}, "\x00")
}

func (c *labelCache) get(key string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	label, ok := c.labels[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return label, ok
}

func (c *labelCache) put(key string, label int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels[key] = label
}

func (c *labelCache) stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
