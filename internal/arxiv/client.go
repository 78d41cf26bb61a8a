// Package arxiv is the external search provider: it queries the arXiv Atom
// API and maps entries onto domain.Paper.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"
	"github.com/sirupsen/logrus"

	"paperlab/internal/domain"
)

// DefaultAPIURL is the public arXiv query endpoint.
const DefaultAPIURL = "https://export.arxiv.org/api/query"

const userAgent = "paperlab/1.0"

var extraneousWhitespace = regexp.MustCompile(`\s+`)

// Client queries the arXiv API.
type Client struct {
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
}

// NewClient returns a client for baseURL. A nil httpClient gets one with timeout.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, logger logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		log:     logger.WithField("component", "arxiv"),
	}
}

// Search runs a topic query and returns entries in provider order.
func (c *Client) Search(ctx context.Context, q domain.Query) ([]domain.Paper, error) {
	terms := strings.Fields(q.Text)
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty arXiv query")
	}
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = domain.SortSubmittedDate
	}

	params := url.Values{}
	params.Set("search_query", "all:"+strings.Join(terms, " "))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", string(sortBy))
	params.Set("sortOrder", "descending")

	papers, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"query":   q.Text,
		"results": len(papers),
	}).Info("arXiv search completed")
	return papers, nil
}

// Lookup fetches a single paper by identifier.
func (c *Client) Lookup(ctx context.Context, id string) (domain.Paper, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Paper{}, domain.ErrNotFound
	}

	params := url.Values{}
	params.Set("id_list", id)

	papers, err := c.query(ctx, params)
	if err != nil {
		return domain.Paper{}, err
	}
	if len(papers) == 0 {
		return domain.Paper{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return papers[0], nil
}

func (c *Client) query(ctx context.Context, params url.Values) ([]domain.Paper, error) {
	endpoint := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("arXiv API returned HTTP %d (%s)", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parser atom.Parser
	feed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	papers := make([]domain.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if isErrorEntry(entry) {
			c.log.WithField("detail", normalizeWhitespace(entry.Summary)).Warn("arXiv returned an error entry")
			continue
		}
		p, err := toPaper(entry)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// isErrorEntry reports arXiv's in-band error entries (e.g. a malformed id_list).
// They are recognised by id alone: a paper may well be titled "Error".
func isErrorEntry(entry *atom.Entry) bool {
	return strings.Contains(entry.ID, "/api/errors")
}

func toPaper(entry *atom.Entry) (domain.Paper, error) {
	id := ShortID(entry.ID)
	if id == "" {
		return domain.Paper{}, fmt.Errorf("%w: unrecognised entry id %q", domain.ErrInvalidPaper, entry.ID)
	}

	p := domain.Paper{
		ID:              id,
		Title:           normalizeWhitespace(entry.Title),
		Summary:         normalizeWhitespace(entry.Summary),
		Comment:         normalizeWhitespace(extensionValue(entry, "comment")),
		PrimaryCategory: primaryCategory(entry),
		PDFURL:          pdfLink(entry, id),
	}

	published, err := time.Parse(time.RFC3339, strings.TrimSpace(entry.Published))
	if err != nil {
		return domain.Paper{}, fmt.Errorf("%w: %s: published %q: %v", domain.ErrInvalidPaper, id, entry.Published, err)
	}
	p.PublishedAt = published

	for _, a := range entry.Authors {
		if a == nil {
			continue
		}
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	return p, nil
}

// ShortID extracts the identifier after "/abs/" and keeps the version suffix,
// e.g. "http://arxiv.org/abs/2401.01234v2" yields "2401.01234v2".
func ShortID(entryID string) string {
	const prefix = "/abs/"
	idx := strings.Index(entryID, prefix)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(entryID[idx+len(prefix):])
}

func primaryCategory(entry *atom.Entry) string {
	if term := extensionAttr(entry, "primary_category", "term"); term != "" {
		return term
	}
	for _, cat := range entry.Categories {
		if cat != nil && cat.Term != "" {
			return cat.Term
		}
	}
	return ""
}

func pdfLink(entry *atom.Entry, id string) string {
	for _, link := range entry.Links {
		if link != nil && link.Title == "pdf" && link.Href != "" {
			return link.Href
		}
	}
	return "https://arxiv.org/pdf/" + id
}

// extensionValue finds an element from any non-Atom namespace by local name.
func extensionValue(entry *atom.Entry, name string) string {
	for _, elems := range entry.Extensions {
		for _, ext := range elems[name] {
			if ext.Value != "" {
				return ext.Value
			}
		}
	}
	return ""
}

func extensionAttr(entry *atom.Entry, name, attr string) string {
	for _, elems := range entry.Extensions {
		for _, ext := range elems[name] {
			if v := ext.Attrs[attr]; v != "" {
				return v
			}
		}
	}
	return ""
}

func normalizeWhitespace(s string) string {
	return extraneousWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}
