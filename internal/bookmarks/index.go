// Package bookmarks keeps bookmarked papers grouped by primary category.
package bookmarks

import (
	"fmt"
	"sync"

	"paperlab/internal/domain"
)

// Action is what a bookmark request does to a paper.
type Action int

const (
	// Add appends the paper to its category unless it is already there.
	Add Action = iota
	// Remove takes the paper out of its category.
	Remove
)

func (a Action) String() string {
	switch a {
	case Add:
		return "add"
	case Remove:
		return "remove"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Group is one category and its papers in bookmark order.
type Group struct {
	Category string         `json:"category"`
	Papers   []domain.Paper `json:"papers"`
}

// Index maps a category code to the ordered papers bookmarked in it.
// Papers are matched by ID within their own primary category. All methods are
// safe for concurrent use; mutations are serialized by a single lock.
type Index struct {
	mu     sync.RWMutex
	groups map[string][]domain.Paper
	// order holds categories by first-bookmark time.
	order []string
}

// NewIndex returns an empty index. No category exists until its first bookmark.
func NewIndex() *Index {
	return &Index{groups: make(map[string][]domain.Paper)}
}

// Apply performs action on p and reports whether the index changed.
func (x *Index) Apply(action Action, p domain.Paper) (bool, error) {
	switch action {
	case Add:
		return x.Add(p), nil
	case Remove:
		return x.Remove(p), nil
	}
	return false, fmt.Errorf("unknown bookmark action %v", action)
}

// Add appends p to its category list. A paper already present is left alone,
// so repeated adds keep exactly one entry.
func (x *Index) Add(p domain.Paper) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	list, exists := x.groups[p.PrimaryCategory]
	if indexOf(list, p.ID) >= 0 {
		return false
	}
	if !exists {
		x.order = append(x.order, p.PrimaryCategory)
	}
	x.groups[p.PrimaryCategory] = append(list, p)
	return true
}

// Remove drops p from its category. An emptied category disappears from the listing.
func (x *Index) Remove(p domain.Paper) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	list := x.groups[p.PrimaryCategory]
	i := indexOf(list, p.ID)
	if i < 0 {
		return false
	}

	rest := make([]domain.Paper, 0, len(list)-1)
	rest = append(rest, list[:i]...)
	rest = append(rest, list[i+1:]...)
	if len(rest) > 0 {
		x.groups[p.PrimaryCategory] = rest
		return true
	}

	delete(x.groups, p.PrimaryCategory)
	for j, c := range x.order {
		if c == p.PrimaryCategory {
			x.order = append(x.order[:j:j], x.order[j+1:]...)
			break
		}
	}
	return true
}

// IsBookmarked reports membership of p in its category's list.
func (x *Index) IsBookmarked(p domain.Paper) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return indexOf(x.groups[p.PrimaryCategory], p.ID) >= 0
}

// ListByCategory returns a snapshot of all groups in first-bookmark order.
func (x *Index) ListByCategory() []Group {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]Group, 0, len(x.order))
	for _, c := range x.order {
		papers := make([]domain.Paper, len(x.groups[c]))
		copy(papers, x.groups[c])
		out = append(out, Group{Category: c, Papers: papers})
	}
	return out
}

func indexOf(list []domain.Paper, id string) int {
	for i, p := range list {
		if p.ID == id {
			return i
		}
	}
	return -1
}
