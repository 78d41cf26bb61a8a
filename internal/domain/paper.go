package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrNotFound is returned by a provider when an identifier resolves to no paper.
var ErrNotFound = errors.New("paper not found")

// ErrInvalidPaper marks a provider record that is missing a required field.
var ErrInvalidPaper = errors.New("invalid paper record")

// Paper is the normalized representation of one external search result.
// It is immutable once fetched: nothing downstream of ingestion mutates it.
type Paper struct {
	// ID is the stable external identifier (e.g. "2401.01234v1").
	ID string `json:"id"`

	// Title as published by the provider.
	Title string `json:"title"`

	// Summary is the abstract. Free text, may contain links.
	Summary string `json:"summary"`

	// Comment is the optional submitter comment. Free text, may contain links.
	Comment string `json:"comment,omitempty"`

	// PrimaryCategory is an opaque taxonomy code such as "cs.LG".
	PrimaryCategory string `json:"primary_category"`

	// PublishedAt carries the provider's timezone.
	PublishedAt time.Time `json:"published_at"`

	PDFURL string `json:"pdf_url"`

	// Authors in provider order.
	Authors []string `json:"authors"`
}

// Validate reports whether the record satisfies the ingestion preconditions.
func (p Paper) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidPaper)
	case p.Title == "":
		return fmt.Errorf("%w: %s: missing title", ErrInvalidPaper, p.ID)
	case p.PrimaryCategory == "":
		return fmt.Errorf("%w: %s: missing primary category", ErrInvalidPaper, p.ID)
	case p.PublishedAt.IsZero():
		return fmt.Errorf("%w: %s: missing publication timestamp", ErrInvalidPaper, p.ID)
	}
	return nil
}

// SortOrder selects how the provider orders search results.
type SortOrder string

const (
	SortRelevance       SortOrder = "relevance"
	SortLastUpdatedDate SortOrder = "lastUpdatedDate"
	SortSubmittedDate   SortOrder = "submittedDate"
)

// Valid reports whether s is one of the known orders.
func (s SortOrder) Valid() bool {
	switch s {
	case SortRelevance, SortLastUpdatedDate, SortSubmittedDate:
		return true
	}
	return false
}

// Query holds the parameters of one topic search.
type Query struct {
	Text       string
	MaxResults int
	SortBy     SortOrder
}

var versionSuffix = regexp.MustCompile(`v[0-9]+$`)

// SameArticle reports whether got answers a request for requested. They must
// be equal, except that a versionless request matches any version of it.
func SameArticle(requested, got string) bool {
	if requested == got {
		return true
	}
	if versionSuffix.MatchString(requested) {
		return false
	}
	return versionSuffix.ReplaceAllString(got, "") == requested
}
