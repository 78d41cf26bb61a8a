// Package card derives the render-ready description of one paper.
//
// Everything here is a pure function of its inputs. Whether a card is
// expanded is supplied per request by the caller and never stored.
package card

import (
	"strings"
	"time"

	"paperlab/internal/domain"
)

// View is one paper card, ready for a template or a terminal.
type View struct {
	ID    string
	Title string

	// SourceLink is empty when no code link was found.
	SourceLink string
	PDFURL     string
	Age        string
	Category   string

	Bookmarked bool
	Expanded   bool

	// Summary and Authors are only set when Expanded.
	Summary string
	Authors string
}

// Present composes the card for p. It reads p and never modifies it.
func Present(p domain.Paper, expanded, bookmarked bool, now time.Time) View {
	v := View{
		ID:         p.ID,
		Title:      NormalizeTitle(p.Title),
		PDFURL:     p.PDFURL,
		Age:        Age(p.PublishedAt, now),
		Category:   p.PrimaryCategory,
		Bookmarked: bookmarked,
		Expanded:   expanded,
	}
	if link, ok := SourceLink(p.Summary, p.Comment); ok {
		v.SourceLink = link
	}
	if expanded {
		v.Summary = TruncateSummary(p.Summary)
		v.Authors = strings.Join(p.Authors, ", ")
	}
	return v
}

// TogglePath is the route that flips the card: collapse when expanded, expand otherwise.
func (v View) TogglePath() string {
	if v.Expanded {
		return "/collapse/" + v.ID
	}
	return "/expand/" + v.ID
}

// BookmarkPath is the bookmark route for the card, carrying its current state.
// The same path adds (POST) or removes (DELETE) the bookmark.
func (v View) BookmarkPath() string {
	if v.Expanded {
		return "/bookmark/" + v.ID + "?expanded=true"
	}
	return "/bookmark/" + v.ID
}
