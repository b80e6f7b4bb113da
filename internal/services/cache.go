package services

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// ResultCache holds live analysis results per date range and monthly series
// per site. Reference data is never put here.
type ResultCache struct {
	mu              sync.RWMutex
	analysis        map[string]CacheItem // "start|end" -> results
	analysisGen     uint64               // bumped by InvalidateAnalysis
	monthly         map[string]CacheItem // coordinates -> monthly data
	logger          *zap.Logger
	defaultDuration time.Duration
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

func NewResultCache(defaultDuration time.Duration, maxSize int, logger *zap.Logger) *ResultCache {
	cache := &ResultCache{
		analysis:        make(map[string]CacheItem),
		monthly:         make(map[string]CacheItem),
		logger:          logger,
		defaultDuration: defaultDuration,
		maxSize:         maxSize,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go cache.startCleanup()

	return cache
}

func analysisKey(startDate, endDate string) string {
	return startDate + "|" + endDate
}

func (c *ResultCache) enabled() bool {
	return c.defaultDuration > 0 && c.maxSize > 0
}

func (c *ResultCache) SetAnalysis(startDate, endDate string, results models.AnalysisResults) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setAnalysis(startDate, endDate, results)
}

// AnalysisGeneration returns a counter that changes on every InvalidateAnalysis.
func (c *ResultCache) AnalysisGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.analysisGen
}

// SetAnalysisIfCurrent caches results only if no invalidation happened since
// gen was read. It reports whether the results were stored.
func (c *ResultCache) SetAnalysisIfCurrent(startDate, endDate string, results models.AnalysisResults, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.analysisGen {
		c.logger.Debug("Skipping stale analysis results",
			zap.String("range", analysisKey(startDate, endDate)))
		return false
	}
	return c.setAnalysis(startDate, endDate, results)
}

// setAnalysis stores results. Callers hold mu.
func (c *ResultCache) setAnalysis(startDate, endDate string, results models.AnalysisResults) bool {
	if !c.enabled() {
		return false
	}

	if len(c.analysis)+len(c.monthly) >= c.maxSize {
		c.evictOldest()
	}

	key := analysisKey(startDate, endDate)
	expiresAt := time.Now().Add(c.defaultDuration)
	c.analysis[key] = CacheItem{
		Data:      results.Clone(),
		ExpiresAt: expiresAt,
	}

	c.logger.Debug("Analysis results cached",
		zap.String("range", key),
		zap.Time("expires_at", expiresAt))
	return true
}

func (c *ResultCache) GetAnalysis(startDate, endDate string) (models.AnalysisResults, bool) {
	key := analysisKey(startDate, endDate)

	c.mu.RLock()
	item, exists := c.analysis[key]
	c.mu.RUnlock()

	if !exists {
		return models.AnalysisResults{}, false
	}

	if time.Now().After(item.ExpiresAt) {
		c.mu.Lock()
		delete(c.analysis, key)
		c.mu.Unlock()
		return models.AnalysisResults{}, false
	}

	results, ok := item.Data.(models.AnalysisResults)
	if !ok {
		return models.AnalysisResults{}, false
	}
	return results.Clone(), true
}

func (c *ResultCache) SetMonthly(coordinates string, data models.MonthlyData) {
	if !c.enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.analysis)+len(c.monthly) >= c.maxSize {
		c.evictOldest()
	}

	c.monthly[coordinates] = CacheItem{
		Data:      data.Clone(),
		ExpiresAt: time.Now().Add(c.defaultDuration),
	}

	c.logger.Debug("Monthly data cached", zap.String("coordinates", coordinates))
}

func (c *ResultCache) GetMonthly(coordinates string) (models.MonthlyData, bool) {
	c.mu.RLock()
	item, exists := c.monthly[coordinates]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().After(item.ExpiresAt) {
		c.mu.Lock()
		delete(c.monthly, coordinates)
		c.mu.Unlock()
		return nil, false
	}

	data, ok := item.Data.(models.MonthlyData)
	if !ok {
		return nil, false
	}
	return data.Clone(), true
}

// InvalidateAnalysis drops every cached analysis; the active location set changed.
func (c *ResultCache) InvalidateAnalysis() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.analysisGen++
	if n := len(c.analysis); n > 0 {
		c.analysis = make(map[string]CacheItem)
		c.logger.Debug("Analysis cache invalidated", zap.Int("count", n))
	}
}

// evictOldest drops the entry closest to expiry across both maps. Callers hold mu.
func (c *ResultCache) evictOldest() {
	var oldestKey string
	var oldestMap map[string]CacheItem
	var oldestTime time.Time

	for _, m := range []map[string]CacheItem{c.analysis, c.monthly} {
		for key, item := range m {
			if oldestMap == nil || item.ExpiresAt.Before(oldestTime) {
				oldestKey = key
				oldestMap = m
				oldestTime = item.ExpiresAt
			}
		}
	}

	if oldestMap != nil {
		delete(oldestMap, oldestKey)
		c.logger.Debug("Evicted oldest cache entry", zap.String("key", oldestKey))
	}
}

func (c *ResultCache) startCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *ResultCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for _, m := range []map[string]CacheItem{c.analysis, c.monthly} {
		for key, item := range m {
			if now.After(item.ExpiresAt) {
				delete(m, key)
				expiredCount++
			}
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired cache items",
			zap.Int("count", expiredCount))
	}
}

func (c *ResultCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCleanup)
	})
}

func (c *ResultCache) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"analysis_items":   len(c.analysis),
		"monthly_items":    len(c.monthly),
		"max_size":         c.maxSize,
		"default_duration": c.defaultDuration.String(),
	}
}
