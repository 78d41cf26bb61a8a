// Package web serves the paper dashboard over HTTP with gin.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"paperlab/internal/bookmarks"
	"paperlab/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Library is the search and single-paper resolution the handlers depend on.
type Library interface {
	Search(ctx context.Context, q domain.Query) ([]domain.Paper, error)
	Find(ctx context.Context, id string) (domain.Paper, error)
}

// CategoryNamer maps a category code to a display name.
type CategoryNamer interface {
	Name(ctx context.Context, code string) (string, bool, error)
}

// Options controls the initial search.
type Options struct {
	DefaultQuery string
	MaxResults   int
	SortBy       domain.SortOrder
}

// Server holds the handler dependencies. The bookmark index and the library's
// cache are shared by every request.
type Server struct {
	library    Library
	bookmarks  *bookmarks.Index
	categories CategoryNamer
	opts       Options
	now        func() time.Time
	log        logrus.FieldLogger

	router *gin.Engine
}

// Option customizes a Server.
type Option func(*Server)

// WithCategories names bookmark groups in the sidebar.
func WithCategories(c CategoryNamer) Option {
	return func(s *Server) { s.categories = c }
}

// WithClock replaces time.Now for age labels.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer builds the router.
func NewServer(library Library, index *bookmarks.Index, opts Options, logger logrus.FieldLogger, options ...Option) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		library:   library,
		bookmarks: index,
		opts:      opts,
		now:       time.Now,
		log:       logger.WithField("component", "web"),
	}
	for _, o := range options {
		o(s)
	}

	router := gin.New()
	router.Use(requestID(), requestLogger(s.log), gin.Recovery())
	router.SetHTMLTemplate(tmpl)
	s.routes(router)
	s.router = router
	return s, nil
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/", s.home)
	// Old-style arXiv identifiers contain a slash (hep-th/9901001), hence the catch-all.
	r.GET("/expand/*id", s.expand)
	r.GET("/collapse/*id", s.collapse)
	r.POST("/bookmark/*id", s.bookmark(bookmarks.Add))
	r.DELETE("/bookmark/*id", s.bookmark(bookmarks.Remove))
	r.GET("/bookmarks", s.sidebar)
	r.GET("/api/bookmarks", s.bookmarksJSON)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
