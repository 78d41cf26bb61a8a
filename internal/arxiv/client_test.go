package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperlab/internal/domain"
	"paperlab/internal/logging"
)

const twoEntryFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <title>arXiv Query</title>
  <id>http://arxiv.org/api/abc</id>
  <updated>2024-05-02T00:00:00-04:00</updated>
  <opensearch:totalResults>2</opensearch:totalResults>
  <entry>
    <id>http://arxiv.org/abs/2405.00001v2</id>
    <updated>2024-05-01T17:59:59Z</updated>
    <published>2024-05-01T17:59:59Z</published>
    <title>Foundation Models and
      Computational Pathology</title>
    <summary>  We study slides.
      Code: https://github.com/lab/slides.  </summary>
    <author><name>Jane Roe</name></author>
    <author><name>John Doe</name></author>
    <arxiv:comment xmlns:arxiv="http://arxiv.org/schemas/atom">12 pages, 3 figures</arxiv:comment>
    <link href="http://arxiv.org/abs/2405.00001v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2405.00001v2" rel="related" type="application/pdf"/>
    <arxiv:primary_category xmlns:arxiv="http://arxiv.org/schemas/atom" term="eess.IV" scheme="http://arxiv.org/schemas/atom"/>
    <category term="eess.IV" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.CV" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2404.12345v1</id>
    <updated>2024-04-30T09:00:00Z</updated>
    <published>2024-04-30T09:00:00+02:00</published>
    <title>Second</title>
    <summary>Short.</summary>
    <author><name>Solo Author</name></author>
    <category term="q-bio.QM" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>arXiv Query</title>
  <id>http://arxiv.org/api/empty</id>
  <updated>2024-05-02T00:00:00-04:00</updated>
</feed>`

const errorFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>arXiv Query</title>
  <id>http://arxiv.org/api/err</id>
  <updated>2024-05-02T00:00:00-04:00</updated>
  <entry>
    <id>http://arxiv.org/api/errors#incorrect_id_format_for_bogus</id>
    <title>Error</title>
    <summary>incorrect id format for bogus</summary>
    <updated>2024-05-02T00:00:00-04:00</updated>
  </entry>
</feed>`

const errorTitledPaperFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>arXiv Query</title>
  <id>http://arxiv.org/api/xyz</id>
  <updated>2024-05-02T00:00:00-04:00</updated>
  <entry>
    <id>http://arxiv.org/abs/2403.00777v1</id>
    <published>2024-03-01T10:00:00Z</published>
    <title>Error</title>
    <summary>On the propagation of rounding error.</summary>
    <author><name>Ada Lovelace</name></author>
    <category term="math.NA" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, ts.Client(), 0, logging.Discard())
}

func TestClient_Search(t *testing.T) {
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"search_query": q.Get("search_query"),
			"max_results":  q.Get("max_results"),
			"sortBy":       q.Get("sortBy"),
			"sortOrder":    q.Get("sortOrder"),
		}
		_, _ = w.Write([]byte(twoEntryFeed))
	})

	papers, err := client.Search(context.Background(), domain.Query{
		Text:       "computational  pathology",
		MaxResults: 2,
		SortBy:     domain.SortSubmittedDate,
	})
	require.NoError(t, err)
	require.Len(t, papers, 2)

	assert.Equal(t, "all:computational pathology", gotQuery["search_query"])
	assert.Equal(t, "2", gotQuery["max_results"])
	assert.Equal(t, "submittedDate", gotQuery["sortBy"])
	assert.Equal(t, "descending", gotQuery["sortOrder"])

	first := papers[0]
	assert.Equal(t, "2405.00001v2", first.ID)
	assert.Equal(t, "Foundation Models and Computational Pathology", first.Title)
	assert.Equal(t, "We study slides. Code: https://github.com/lab/slides.", first.Summary)
	assert.Equal(t, "12 pages, 3 figures", first.Comment)
	assert.Equal(t, "eess.IV", first.PrimaryCategory)
	assert.Equal(t, "http://arxiv.org/pdf/2405.00001v2", first.PDFURL)
	assert.Equal(t, []string{"Jane Roe", "John Doe"}, first.Authors)
	assert.True(t, first.PublishedAt.Equal(time.Date(2024, 5, 1, 17, 59, 59, 0, time.UTC)))

	second := papers[1]
	assert.Equal(t, "2404.12345v1", second.ID)
	assert.Equal(t, "q-bio.QM", second.PrimaryCategory, "falls back to the first category")
	assert.Equal(t, "https://arxiv.org/pdf/2404.12345v1", second.PDFURL)
	assert.Empty(t, second.Comment)
	_, offset := second.PublishedAt.Zone()
	assert.Equal(t, 2*3600, offset, "publication timezone is preserved")
}

func TestClient_SearchEmptyQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := client.Search(context.Background(), domain.Query{Text: "   "})
	assert.Error(t, err)
}

func TestClient_SearchHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	_, err := client.Search(context.Background(), domain.Query{Text: "pathology"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestClient_SearchMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<feed><entry>"))
	})
	_, err := client.Search(context.Background(), domain.Query{Text: "pathology"})
	assert.Error(t, err)
}

func TestClient_Lookup(t *testing.T) {
	var idList string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		idList = r.URL.Query().Get("id_list")
		_, _ = w.Write([]byte(twoEntryFeed))
	})

	p, err := client.Lookup(context.Background(), "2405.00001v2")
	require.NoError(t, err)
	assert.Equal(t, "2405.00001v2", idList)
	assert.Equal(t, "2405.00001v2", p.ID)
}

func TestClient_LookupNotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty feed", emptyFeed},
		{"error entry", errorFeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Lookup(context.Background(), "bogus")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2401.01234v2", "2401.01234v2"},
		{"http://arxiv.org/abs/hep-th/9901001v1", "hep-th/9901001v1"},
		{"http://arxiv.org/api/errors#bad", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShortID(tt.in), tt.in)
	}
}

func TestClient_LookupPaperTitledError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(errorTitledPaperFeed))
	})

	p, err := client.Lookup(context.Background(), "2403.00777v1")
	require.NoError(t, err)
	assert.Equal(t, "2403.00777v1", p.ID)
	assert.Equal(t, "Error", p.Title)
	assert.Equal(t, "math.NA", p.PrimaryCategory)
}
