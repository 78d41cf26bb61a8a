package papers

import (
	"errors"
	"fmt"

	"paperlab/internal/domain"
)

// LookupError reports that a paper identifier was neither cached nor
// resolvable through the provider.
type LookupError struct {
	ID  string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s: %v", e.ID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// NotFound reports whether the provider said the paper does not exist, as
// opposed to failing to answer.
func (e *LookupError) NotFound() bool {
	return errors.Is(e.Err, domain.ErrNotFound)
}

// SearchError reports that the provider failed on a topic query, or returned
// a record that does not satisfy the ingestion preconditions.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }
