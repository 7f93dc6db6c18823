// Package search wraps a web search provider with jittered pacing and a
// single bounded retry on rate limiting.
package search

import (
	"context"

	"github.com/rs/zerolog/log"

	"research-assistant/internal/models"
)

const DefaultMaxResults = 3

// Options are passed through to the provider unchanged
type Options struct {
	MaxResults int
	Region     string
	SafeSearch string
	Backend    string
}

// Provider performs one raw search request
type Provider interface {
	Search(ctx context.Context, query string, opts Options) ([]models.SearchResult, error)
}

// Searcher applies a RetryPolicy around a Provider. Its Search never fails:
// any unrecovered error yields an empty result list.
type Searcher struct {
	provider Provider
	policy   RetryPolicy
	opts     Options
}

func NewSearcher(provider Provider, policy RetryPolicy, opts Options) *Searcher {
	return &Searcher{provider: provider, policy: policy, opts: opts}
}

// Search returns up to maxResults results in provider order
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) []models.SearchResult {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	opts := s.opts
	opts.MaxResults = maxResults

	for attempt := 1; ; attempt++ {
		if err := s.policy.BeforeCall(ctx); err != nil {
			return []models.SearchResult{}
		}

		raw, err := s.provider.Search(ctx, query, opts)
		if err == nil {
			return s.pace(ctx, raw, maxResults)
		}

		log.Ctx(ctx).Warn().Err(err).Str("query", query).Int("attempt", attempt).Msg("Search failed")
		if !s.policy.ShouldRetry(attempt, err) {
			return []models.SearchResult{}
		}

		log.Ctx(ctx).Info().Dur("backoff", s.policy.RateLimitBackoff).Msg("Rate limit detected, backing off before retry")
		if err := s.policy.Backoff(ctx); err != nil {
			return []models.SearchResult{}
		}
	}
}

// pace hands results back one at a time with a delay before each
func (s *Searcher) pace(ctx context.Context, raw []models.SearchResult, maxResults int) []models.SearchResult {
	results := make([]models.SearchResult, 0, min(len(raw), maxResults))
	for _, r := range raw {
		if len(results) == maxResults {
			break
		}
		if err := s.policy.BeforeResult(ctx); err != nil {
			break
		}
		results = append(results, r)
	}
	log.Ctx(ctx).Debug().Int("results", len(results)).Msg("Search complete")
	return results
}
