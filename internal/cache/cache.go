// Package cache provides caching for encoded frames and hit-test results.
package cache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Config contains cache configuration.
type Config struct {
	FrameCacheSizeMB int
	FrameTTL         time.Duration
	QueryCacheSize   int
}

// Manager manages the frame and query caches.
type Manager struct {
	frameCache *bigcache.BigCache
	queryCache *lru.Cache[string, []int]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.FrameTTL <= 0 {
		cfg.FrameTTL = 10 * time.Minute
	}
	if cfg.QueryCacheSize <= 0 {
		cfg.QueryCacheSize = 1000
	}

	frameCacheConfig := bigcache.Config{
		Shards:             64,
		LifeWindow:         cfg.FrameTTL,
		CleanWindow:        cfg.FrameTTL / 2,
		MaxEntriesInWindow: 1000,
		MaxEntrySize:       64 * 1024, // typical frame PNG
		HardMaxCacheSize:   cfg.FrameCacheSizeMB,
		Verbose:            false,
	}

	frameCache, err := bigcache.New(context.Background(), frameCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame cache: %w", err)
	}

	queryCache, err := lru.New[string, []int](cfg.QueryCacheSize)
	if err != nil {
		frameCache.Close()
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}

	return &Manager{
		frameCache: frameCache,
		queryCache: queryCache,
	}, nil
}

// GetFrame retrieves an encoded frame from cache.
func (m *Manager) GetFrame(key string) ([]byte, bool) {
	data, err := m.frameCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetFrame stores an encoded frame in cache.
func (m *Manager) SetFrame(key string, data []byte) error {
	return m.frameCache.Set(key, data)
}

// DropFrame removes a frame. A missing key is not an error.
func (m *Manager) DropFrame(key string) error {
	err := m.frameCache.Delete(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	}
	return err
}

// GetQuery retrieves cached hit-test indices.
func (m *Manager) GetQuery(key string) ([]int, bool) {
	return m.queryCache.Get(key)
}

// SetQuery stores hit-test indices.
func (m *Manager) SetQuery(key string, indices []int) {
	m.queryCache.Add(key, indices)
}

// FrameKey generates a cache key for one rendered frame of a session.
func FrameKey(session string, version uint64) string {
	return fmt.Sprintf("frame:%s:%d", session, version)
}

// HitKey generates a cache key for a point hit test against one frame.
// Coordinates are rounded to whole pixels.
func HitKey(session string, version uint64, px, py float64) string {
	return fmt.Sprintf("hit:%s:%d:%d/%d", session, version, int(math.Round(px)), int(math.Round(py)))
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"frame_cache_len": m.frameCache.Len(),
		"frame_cache_cap": m.frameCache.Capacity(),
		"query_cache_len": m.queryCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.frameCache.Close()
}
