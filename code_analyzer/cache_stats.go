package code_analyzer

import (
	"sync"
	"sync/atomic"
	"time"
)

// CacheStats counts structure lookups since the last reset.
type CacheStats struct {
	hits   atomic.Int64
	misses atomic.Int64

	resetMutex sync.RWMutex
	resetAt    time.Time
}

func newCacheStats() *CacheStats {
	return &CacheStats{resetAt: time.Now()}
}

func (cm *CacheManager) recordCacheHit()  { cm.stats.hits.Add(1) }
func (cm *CacheManager) recordCacheMiss() { cm.stats.misses.Add(1) }

// GetPerformanceStats returns hit/miss counters and the derived hit rate in percent.
func (cm *CacheManager) GetPerformanceStats() map[string]interface{} {
	hits := cm.stats.hits.Load()
	misses := cm.stats.misses.Load()
	total := hits + misses

	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	cm.stats.resetMutex.RLock()
	resetAt := cm.stats.resetAt
	cm.stats.resetMutex.RUnlock()

	return map[string]interface{}{
		"total_requests": total,
		"cache_hits":     hits,
		"cache_misses":   misses,
		"hit_rate":       hitRate,
		"last_reset":     resetAt.Format(time.RFC3339),
	}
}

func (cm *CacheManager) resetStats() {
	cm.stats.hits.Store(0)
	cm.stats.misses.Store(0)

	cm.stats.resetMutex.Lock()
	cm.stats.resetAt = time.Now()
	cm.stats.resetMutex.Unlock()
}
