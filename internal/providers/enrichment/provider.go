package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	stderrors "brewscout/internal/common/errors"
	"brewscout/internal/common/logger"
	"brewscout/internal/genai"
	"brewscout/internal/models"
)

// Summarizer produces a web-grounded summary for a prompt.
type Summarizer interface {
	GroundedSummary(ctx context.Context, prompt string) (*genai.Summary, error)
}

// Result is one enrichment outcome. ExternalCalls counts grounded summary
// requests made for this venue, zero on a cache hit.
type Result struct {
	Summary       string
	Outcome       models.CacheOutcome
	ExternalCalls int
}

type Provider struct {
	cache      *Cache
	summarizer Summarizer
	logger     logger.Logger
}

func NewProvider(cache *Cache, summarizer Summarizer, log logger.Logger) *Provider {
	return &Provider{
		cache:      cache,
		summarizer: summarizer,
		logger: log.With(map[string]interface{}{
			"component": "enrichment-provider",
		}),
	}
}

// Summarize returns a current summary for the venue. A fresh cached entry
// is served without any external call; a stale or missing one triggers
// exactly one grounded summary request whose result supersedes the old
// entry. Failures return a typed recoverable error with no internal retry.
func (p *Provider) Summarize(ctx context.Context, venue models.CandidateVenue, now time.Time) (*Result, error) {
	key := models.SubjectKey{Name: venue.Name}
	if venue.HasWebsite() {
		key.URL = venue.WebsiteURL
	}

	outcome, cached, vector, err := p.cache.Lookup(ctx, key, now)
	if err != nil {
		return nil, err
	}

	if outcome == models.CacheHit {
		p.logger.Info("serving cached summary", map[string]interface{}{
			"venue":   venue.Name,
			"ageDays": cached.AgeDays(now),
		})
		return &Result{Summary: cached.Summary, Outcome: outcome, ExternalCalls: 0}, nil
	}

	summary, err := p.summarizer.GroundedSummary(ctx, buildEnrichmentPrompt(venue))
	if err != nil {
		if errors.Is(err, genai.ErrGenAITimeout) {
			return nil, stderrors.NewExternalTimeoutError("genai")
		}
		return nil, stderrors.NewExternalServiceError("genai", err)
	}

	entry := &models.CacheEntry{
		ID:        uuid.NewString(),
		Key:       key,
		Summary:   summary.Text,
		Category:  venue.Category,
		CreatedAt: now,
		Embedding: vector,
	}
	if err := p.cache.Store(ctx, entry); err != nil {
		// The summary is already produced; a persistence failure only costs
		// the next run a cache miss.
		p.logger.Warn("cache store failed", map[string]interface{}{
			"venue": venue.Name,
			"error": err.Error(),
		})
	}

	p.logger.Info("summary refreshed", map[string]interface{}{
		"venue":       venue.Name,
		"outcome":     string(outcome),
		"sourceCount": summary.SourceCount,
	})

	return &Result{Summary: summary.Text, Outcome: outcome, ExternalCalls: 1}, nil
}

// buildEnrichmentPrompt keeps the request bounded to the venue's public
// identity fields.
func buildEnrichmentPrompt(venue models.CandidateVenue) string {
	prompt := fmt.Sprintf(
		"Summarize in under 120 words what visitors should know about %q", venue.Name)
	if addr := venue.DisplayAddress(); addr != "" {
		prompt += fmt.Sprintf(" located at %s", addr)
	}
	if venue.HasWebsite() {
		prompt += fmt.Sprintf(" (website: %s)", venue.WebsiteURL)
	}
	prompt += ". Cover current offerings, atmosphere and anything notable. " +
		"Use only grounded search evidence."
	return prompt
}
