package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"paperlab/internal/bookmarks"
	"paperlab/internal/card"
	"paperlab/internal/domain"
	"paperlab/internal/papers"
)

type pageData struct {
	Query   string
	Error   string
	Cards   []card.View
	Sidebar []sidebarGroup
}

type sidebarGroup struct {
	Category string
	Name     string
	Papers   []sidebarPaper
}

type sidebarPaper struct {
	ID     string
	Title  string
	PDFURL string
}

type missingData struct {
	ID       string
	NotFound bool
}

// home runs the topic search and renders the full page. A failed search still
// renders the page, with no cards and an error banner.
func (s *Server) home(c *gin.Context) {
	q := domain.Query{
		Text:       strings.TrimSpace(c.Query("search")),
		MaxResults: s.opts.MaxResults,
		SortBy:     s.opts.SortBy,
	}
	if q.Text == "" {
		q.Text = s.opts.DefaultQuery
	}

	data := pageData{Query: q.Text}
	results, err := s.library.Search(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		data.Error = "the paper provider did not answer, try again later"
	}

	now := s.now()
	data.Cards = make([]card.View, 0, len(results))
	for _, p := range results {
		data.Cards = append(data.Cards, card.Present(p, false, s.bookmarks.IsBookmarked(p), now))
	}
	data.Sidebar = s.sidebarGroups(c)

	c.HTML(http.StatusOK, "page", data)
}

func (s *Server) expand(c *gin.Context)   { s.renderCard(c, true) }
func (s *Server) collapse(c *gin.Context) { s.renderCard(c, false) }

func (s *Server) renderCard(c *gin.Context, expanded bool) {
	p, ok := s.find(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "card", card.Present(p, expanded, s.bookmarks.IsBookmarked(p), s.now()))
}

// bookmark applies action to the paper and answers with its refreshed card,
// keeping the expanded state the request carries.
func (s *Server) bookmark(action bookmarks.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := s.find(c)
		if !ok {
			return
		}
		changed, err := s.bookmarks.Apply(action, p)
		if err != nil {
			_ = c.Error(err)
			c.Status(http.StatusBadRequest)
			return
		}
		s.log.WithFields(logrus.Fields{
			"paper_id": p.ID,
			"category": p.PrimaryCategory,
			"action":   action.String(),
			"changed":  changed,
		}).Info("Bookmark applied")

		expanded, _ := strconv.ParseBool(c.Query("expanded"))
		c.Header("HX-Trigger", "bookmarks-changed")
		c.HTML(http.StatusOK, "card", card.Present(p, expanded, s.bookmarks.IsBookmarked(p), s.now()))
	}
}

func (s *Server) sidebar(c *gin.Context) {
	c.HTML(http.StatusOK, "sidebar", s.sidebarGroups(c))
}

func (s *Server) bookmarksJSON(c *gin.Context) {
	c.JSON(http.StatusOK, s.bookmarks.ListByCategory())
}

// find resolves the :id path parameter. On failure it writes the not-found
// card and reports false.
func (s *Server) find(c *gin.Context) (domain.Paper, bool) {
	id := strings.TrimPrefix(c.Param("id"), "/")
	if id == "" {
		c.HTML(http.StatusNotFound, "notfound", missingData{NotFound: true})
		return domain.Paper{}, false
	}

	p, err := s.library.Find(c.Request.Context(), id)
	if err == nil {
		return p, true
	}
	_ = c.Error(err)

	var lookupErr *papers.LookupError
	if errors.As(err, &lookupErr) && lookupErr.NotFound() {
		c.HTML(http.StatusNotFound, "notfound", missingData{ID: id, NotFound: true})
		return domain.Paper{}, false
	}
	c.HTML(http.StatusBadGateway, "notfound", missingData{ID: id})
	return domain.Paper{}, false
}

func (s *Server) sidebarGroups(c *gin.Context) []sidebarGroup {
	groups := s.bookmarks.ListByCategory()
	out := make([]sidebarGroup, 0, len(groups))
	for _, g := range groups {
		sg := sidebarGroup{Category: g.Category}
		if s.categories != nil {
			name, ok, err := s.categories.Name(c.Request.Context(), g.Category)
			if err != nil {
				s.log.WithError(err).WithField("category", g.Category).Warn("Category name lookup failed")
			} else if ok {
				sg.Name = name
			}
		}
		for _, p := range g.Papers {
			sg.Papers = append(sg.Papers, sidebarPaper{ID: p.ID, Title: card.NormalizeTitle(p.Title), PDFURL: p.PDFURL})
		}
		out = append(out, sg)
	}
	return out
}
