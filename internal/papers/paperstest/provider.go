// Package paperstest provides an in-memory provider for tests.
package paperstest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"paperlab/internal/domain"
)

// Provider serves canned search results and a lookup table, and counts calls.
type Provider struct {
	mu      sync.Mutex
	results []domain.Paper
	byID    map[string]domain.Paper

	// SearchErr and LookupErr, when set, are returned by every call.
	SearchErr error
	LookupErr error

	searches int
	lookups  map[string]int
}

// NewProvider returns a provider whose Search answers with results and whose
// Lookup can find results plus extra.
func NewProvider(results []domain.Paper, extra ...domain.Paper) *Provider {
	p := &Provider{
		results: results,
		byID:    make(map[string]domain.Paper),
		lookups: make(map[string]int),
	}
	for _, r := range append(append([]domain.Paper{}, results...), extra...) {
		p.byID[r.ID] = r
	}
	return p
}

// Search implements papers.Provider.
func (p *Provider) Search(ctx context.Context, q domain.Query) ([]domain.Paper, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searches++
	if p.SearchErr != nil {
		return nil, p.SearchErr
	}
	out := make([]domain.Paper, len(p.results))
	copy(out, p.results)
	if q.MaxResults > 0 && len(out) > q.MaxResults {
		out = out[:q.MaxResults]
	}
	return out, nil
}

// Lookup implements papers.Provider.
func (p *Provider) Lookup(ctx context.Context, id string) (domain.Paper, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookups[id]++
	if p.LookupErr != nil {
		return domain.Paper{}, p.LookupErr
	}
	r, ok := p.byID[id]
	if !ok {
		return domain.Paper{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return r, nil
}

// Searches returns the number of Search calls.
func (p *Provider) Searches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.searches
}

// Lookups returns the number of Lookup calls for id.
func (p *Provider) Lookups(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lookups[id]
}

// Paper builds a valid record published at the given time.
func Paper(id, category string, publishedAt time.Time) domain.Paper {
	return domain.Paper{
		ID:              id,
		Title:           "Deep learning and digital pathology " + id,
		Summary:         "We propose a method. It works well. Results are strong. Code: https://github.com/lab/" + id + ".",
		PrimaryCategory: category,
		PublishedAt:     publishedAt,
		PDFURL:          "http://arxiv.org/pdf/" + id,
		Authors:         []string{"Jane Roe", "John Doe"},
	}
}
