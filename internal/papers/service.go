// Package papers runs topic searches against the provider and resolves single
// papers through the result cache.
package papers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"paperlab/internal/domain"
	"paperlab/internal/storage"
)

// Provider is the external search API.
type Provider interface {
	Search(ctx context.Context, q domain.Query) ([]domain.Paper, error)
	Lookup(ctx context.Context, id string) (domain.Paper, error)
}

// Service populates the result cache from searches and serves later
// single-paper requests from it.
type Service struct {
	provider Provider
	cache    storage.ResultCache
	timeout  time.Duration
	log      logrus.FieldLogger
}

// NewService wires a provider to a cache. Every provider call is bounded by
// timeout when it is positive.
func NewService(provider Provider, cache storage.ResultCache, timeout time.Duration, logger logrus.FieldLogger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		timeout:  timeout,
		log:      logger.WithField("component", "papers"),
	}
}

// Search asks the provider for q, caches every returned record and returns
// them unmodified in provider order. Failures are *SearchError.
func (s *Service) Search(ctx context.Context, q domain.Query) ([]domain.Paper, error) {
	log := s.log.WithField("query", q.Text)

	callCtx, cancel := s.bound(ctx)
	results, err := s.provider.Search(callCtx, q)
	cancel()
	if err != nil {
		log.WithError(err).Warn("Provider search failed")
		return nil, &SearchError{Query: q.Text, Err: err}
	}

	for _, p := range results {
		if err := p.Validate(); err != nil {
			log.WithError(err).Warn("Provider returned an invalid record")
			return nil, &SearchError{Query: q.Text, Err: err}
		}
	}
	for _, p := range results {
		if err := s.cache.Put(ctx, p); err != nil {
			return nil, &SearchError{Query: q.Text, Err: err}
		}
	}

	log.WithField("results", len(results)).Info("Search results cached")
	return results, nil
}

// Find returns the paper for id from the cache, or from a single provider
// lookup on a miss. Failures are *LookupError.
func (s *Service) Find(ctx context.Context, id string) (domain.Paper, error) {
	p, err := s.cache.Resolve(ctx, id, s.lookup)
	if err != nil {
		s.log.WithError(err).WithField("paper_id", id).Warn("Paper lookup failed")
		return domain.Paper{}, &LookupError{ID: id, Err: err}
	}
	return p, nil
}

func (s *Service) lookup(ctx context.Context, id string) (domain.Paper, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	p, err := s.provider.Lookup(ctx, id)
	if err != nil {
		return domain.Paper{}, err
	}
	if err := p.Validate(); err != nil {
		return domain.Paper{}, err
	}
	return p, nil
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
