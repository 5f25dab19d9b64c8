package models

import (
	"strings"
	"time"
)

// SubjectKey identifies what a cached summary describes.
type SubjectKey struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Text renders the key as the string fed to the embedding service.
func (k SubjectKey) Text() string {
	if k.URL == "" || k.URL == FieldUnavailable {
		return strings.TrimSpace(k.Name)
	}
	return strings.TrimSpace(k.Name) + " " + k.URL
}

// CacheEntry is one cached enrichment summary. Entries are superseded whole
// on refresh, never partially updated.
type CacheEntry struct {
	ID        string     `json:"id"`
	Key       SubjectKey `json:"key"`
	Summary   string     `json:"summary"`
	Category  string     `json:"category"`
	CreatedAt time.Time  `json:"createdAt"`
	Embedding []float32  `json:"embedding"`
}

// AgeDays returns the entry age in whole days at the given instant.
func (e *CacheEntry) AgeDays(now time.Time) int {
	return int(now.Sub(e.CreatedAt).Hours() / 24)
}

// CacheOutcome is the result classification of a cache lookup, plus the
// not-applicable marker used by trace entries for steps that never touch
// the cache.
type CacheOutcome string

const (
	CacheHit           CacheOutcome = "hit"
	CacheStale         CacheOutcome = "stale"
	CacheMiss          CacheOutcome = "miss"
	CacheNotApplicable CacheOutcome = "not-applicable"
)
