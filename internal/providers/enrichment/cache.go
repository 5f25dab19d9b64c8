// Package enrichment produces web-grounded venue summaries behind a
// TTL-bounded semantic cache.
package enrichment

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"brewscout/internal/common/database"
	stderrors "brewscout/internal/common/errors"
	"brewscout/internal/common/logger"
	"brewscout/internal/common/metrics"
	"brewscout/internal/models"
)

// Embedder turns subject key text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CacheConfig holds the semantic cache settings. Two keys are
// similarity-equal when the cosine similarity of their embeddings reaches
// the threshold.
type CacheConfig struct {
	TTLDays             int
	SimilarityThreshold float64
	KeyPrefix           string
}

// Cache is an in-memory semantic index persisted to Redis. Lookups compare
// the query embedding against every stored entry; stores supersede any
// similarity-equal entry, so at most one entry exists per subject.
type Cache struct {
	config   CacheConfig
	embedder Embedder
	redis    *database.RedisClient
	logger   logger.Logger

	mu      sync.RWMutex
	entries []*models.CacheEntry
}

// CacheStats is a point-in-time summary of the index.
type CacheStats struct {
	Total   int `json:"total"`
	Fresh   int `json:"fresh"`
	Stale   int `json:"stale"`
	TTLDays int `json:"ttlDays"`
}

func NewCache(cfg CacheConfig, embedder Embedder, redis *database.RedisClient, log logger.Logger) *Cache {
	return &Cache{
		config:   cfg,
		embedder: embedder,
		redis:    redis,
		logger: log.With(map[string]interface{}{
			"component": "enrichment-cache",
		}),
	}
}

// Load rebuilds the in-memory index from Redis. Called once at startup;
// undecodable entries are skipped.
func (c *Cache) Load(ctx context.Context) error {
	keys, err := c.redis.Scan(ctx, c.config.KeyPrefix+"*")
	if err != nil {
		return stderrors.NewCachePersistenceFailedError(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		raw, err := c.redis.Get(ctx, key)
		if err != nil {
			continue
		}
		var entry models.CacheEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			c.logger.Warn("skipping undecodable cache entry", map[string]interface{}{
				"key": key,
			})
			continue
		}
		c.entries = append(c.entries, &entry)
	}

	c.logger.Info("cache index loaded", map[string]interface{}{
		"entries": len(c.entries),
	})
	return nil
}

// Lookup classifies the subject against the index. Hit returns the cached
// entry; Stale returns the expired entry for reference; Miss returns
// nothing. The query embedding is returned in every case so a following
// Store reuses it instead of re-embedding. An entry is stale only when its
// age strictly exceeds the TTL, so an entry exactly at the TTL is fresh.
func (c *Cache) Lookup(ctx context.Context, key models.SubjectKey, now time.Time) (models.CacheOutcome, *models.CacheEntry, []float32, error) {
	vector, err := c.embedder.Embed(ctx, key.Text())
	if err != nil {
		return "", nil, nil, stderrors.NewExternalServiceError("embeddings", err)
	}

	c.mu.RLock()
	best := c.bestMatch(vector)
	c.mu.RUnlock()

	outcome := models.CacheMiss
	if best != nil {
		if best.AgeDays(now) > c.config.TTLDays {
			outcome = models.CacheStale
		} else {
			outcome = models.CacheHit
		}
	}

	metrics.EnrichmentCacheOutcomes.WithLabelValues(string(outcome)).Inc()
	c.logger.Debug("cache lookup", map[string]interface{}{
		"subject": key.Name,
		"outcome": string(outcome),
	})

	return outcome, best, vector, nil
}

// Store inserts the entry and removes every similarity-equal entry it
// supersedes, under one critical section so concurrent stores for the same
// subject still leave a single entry. Persistence failures keep the
// in-memory index current and are returned for the caller to log.
func (c *Cache) Store(ctx context.Context, entry *models.CacheEntry) error {
	c.mu.Lock()
	var superseded []*models.CacheEntry
	kept := c.entries[:0]
	for _, existing := range c.entries {
		if cosineSimilarity(existing.Embedding, entry.Embedding) >= c.config.SimilarityThreshold {
			superseded = append(superseded, existing)
			continue
		}
		kept = append(kept, existing)
	}
	c.entries = append(kept, entry)
	c.mu.Unlock()

	var persistErr error
	for _, old := range superseded {
		if err := c.redis.Del(ctx, c.config.KeyPrefix+old.ID); err != nil {
			persistErr = err
		}
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return stderrors.NewCachePersistenceFailedError(err)
	}
	if err := c.redis.Set(ctx, c.config.KeyPrefix+entry.ID, raw, 0); err != nil {
		persistErr = err
	}

	if persistErr != nil {
		return stderrors.NewCachePersistenceFailedError(persistErr)
	}
	return nil
}

// Stats reports the index composition at the given instant.
func (c *Cache) Stats(now time.Time) CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{Total: len(c.entries), TTLDays: c.config.TTLDays}
	for _, entry := range c.entries {
		if entry.AgeDays(now) > c.config.TTLDays {
			stats.Stale++
		} else {
			stats.Fresh++
		}
	}
	return stats
}

// bestMatch returns the most similar entry at or above the threshold.
// Callers hold at least a read lock.
func (c *Cache) bestMatch(vector []float32) *models.CacheEntry {
	var best *models.CacheEntry
	bestScore := c.config.SimilarityThreshold
	for _, entry := range c.entries {
		if score := cosineSimilarity(entry.Embedding, vector); score >= bestScore {
			best = entry
			bestScore = score
		}
	}
	return best
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
