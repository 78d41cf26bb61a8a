package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperlab/internal/bookmarks"
	"paperlab/internal/card"
	"paperlab/internal/domain"
	"paperlab/internal/logging"
	"paperlab/internal/papers"
	"paperlab/internal/papers/paperstest"
	"paperlab/internal/storage"
)

var (
	testNow   = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	published = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data     string
		want     callback
		expanded bool
		bookmark bool
		wantErr  bool
	}{
		{data: "card:expand:2405.00001v1", want: callback{Verb: verbExpand, ID: "2405.00001v1"}, expanded: true},
		{data: "card:collapse:2405.00001v1", want: callback{Verb: verbCollapse, ID: "2405.00001v1"}},
		{data: "card:bookmark:hep-th/9901001v1", want: callback{Verb: verbBookmark, ID: "hep-th/9901001v1"}, bookmark: true},
		{data: "card:bookmark.open:2405.00001v1", want: callback{Verb: verbBookmarkOpen, ID: "2405.00001v1"}, expanded: true, bookmark: true},
		{data: "card:expand:", wantErr: true},
		{data: "card:expand", wantErr: true},
		{data: "card:delete:2405.00001v1", wantErr: true},
		{data: "other:expand:2405.00001v1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := parseCallback(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.expanded, got.Expanded())
			assert.Equal(t, tt.bookmark, got.Bookmark())
		})
	}
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		text   string
		args   string
		wantOK bool
	}{
		{"/search", "", true},
		{"/search conformal prediction", "conformal prediction", true},
		{"/search@paperlab_bot  kan ", "kan", true},
		{"  /search kan", "kan", true},
		{"/searchfoo kan", "", false},
		{"/searching", "", false},
		{"/start", "", false},
		{"search kan", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			args, ok := commandArgs(tt.text, "search")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.args, args)
		})
	}

	match := matchCommand("bookmarks")
	assert.True(t, match(&models.Update{Message: &models.Message{Text: "/bookmarks@paperlab_bot"}}))
	assert.False(t, match(&models.Update{Message: &models.Message{Text: "/bookmarksx"}}))
	assert.False(t, match(&models.Update{}))
}

func TestRenderMessage(t *testing.T) {
	p := paperstest.Paper("2405.00001v1", "cs.LG", published)
	p.Title = "Attention <and> Memory"

	collapsed := renderMessage(card.Present(p, false, false, testNow))
	assert.Contains(t, collapsed, "<b>Attention &lt;and&gt; Memory</b>")
	assert.Contains(t, collapsed, "1 month old · [cs.LG]")
	assert.Contains(t, collapsed, `<a href="https://github.com/lab/2405.00001v1">code</a>`)
	assert.NotContains(t, collapsed, "✍️")

	expanded := renderMessage(card.Present(p, true, false, testNow))
	assert.Contains(t, expanded, "✍️ Jane Roe, John Doe")
	assert.Contains(t, expanded, "Results are strong...")
}

func TestKeyboard(t *testing.T) {
	p := paperstest.Paper("2405.00001v1", "cs.LG", published)

	kb := keyboard(card.Present(p, false, false, testNow))
	require.Len(t, kb.InlineKeyboard, 1)
	row := kb.InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, "Expand", row[0].Text)
	assert.Equal(t, "card:expand:2405.00001v1", row[0].CallbackData)
	assert.Equal(t, "☆ Bookmark", row[1].Text)
	assert.Equal(t, "card:bookmark:2405.00001v1", row[1].CallbackData)

	row = keyboard(card.Present(p, true, true, testNow)).InlineKeyboard[0]
	assert.Equal(t, "card:collapse:2405.00001v1", row[0].CallbackData)
	assert.Equal(t, "★ Bookmarked", row[1].Text)
	assert.Equal(t, "card:bookmark.open:2405.00001v1", row[1].CallbackData)
}

func TestRenderBookmarks(t *testing.T) {
	assert.Equal(t, "No bookmarks yet.", renderBookmarks(nil, nil))

	groups := []bookmarks.Group{{
		Category: "cs.LG",
		Papers:   []domain.Paper{paperstest.Paper("2405.00001v1", "cs.LG", published)},
	}}
	out := renderBookmarks(groups, map[string]string{"cs.LG": "Machine Learning"})
	assert.Contains(t, out, "<b>cs.LG · Machine Learning (1)</b>")
	assert.Contains(t, out, "Deep learning &amp; digital pathology 2405.00001v1")
}

// telegramAPI records the Bot API methods the handler calls.
type telegramAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

type apiCall struct {
	Method string
	Form   map[string]string
}

func (a *telegramAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseMultipartForm(1 << 20)
	form := make(map[string]string)
	for k, v := range r.Form {
		form[k] = v[0]
	}
	if r.MultipartForm != nil {
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
	}

	method := path.Base(r.URL.Path)
	a.mu.Lock()
	a.calls = append(a.calls, apiCall{Method: method, Form: form})
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "answerCallbackQuery":
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	default:
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	}
}

func (a *telegramAPI) find(method string) (apiCall, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.calls {
		if c.Method == method {
			return c, true
		}
	}
	return apiCall{}, false
}

func newTestHandler(t *testing.T, provider *paperstest.Provider) (*Handler, *telegramAPI) {
	t.Helper()
	api := &telegramAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cache, err := storage.NewBadgerCache("", logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	library := papers.NewService(provider, cache, time.Second, logging.Discard())
	h, err := NewHandler("test-token", library, bookmarks.NewIndex(), nil, domain.SortSubmittedDate, logging.Discard(),
		tgbot.WithServerURL(srv.URL), tgbot.WithSkipGetMe())
	require.NoError(t, err)
	h.now = func() time.Time { return testNow }
	return h, api
}

func callbackUpdate(data string) *models.Update {
	return &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "cb-1",
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: 7, Chat: models.Chat{ID: 42}},
		},
	}}
}

func TestCallbackHandler_BookmarkEditsCard(t *testing.T) {
	p := paperstest.Paper("2301.00042v3", "q-bio.QM", published)
	provider := paperstest.NewProvider(nil, p)
	h, api := newTestHandler(t, provider)
	ctx := context.Background()

	h.callbackHandler(ctx, h.bot, callbackUpdate("card:bookmark.open:"+p.ID))
	h.callbackHandler(ctx, h.bot, callbackUpdate("card:bookmark.open:"+p.ID))

	groups := h.bookmarks.ListByCategory()
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Papers, 1)
	assert.Equal(t, 1, provider.Lookups(p.ID))

	edit, ok := api.find("editMessageText")
	require.True(t, ok)
	assert.Equal(t, "42", edit.Form["chat_id"])
	assert.Equal(t, "7", edit.Form["message_id"])
	assert.Contains(t, edit.Form["text"], "✍️ Jane Roe, John Doe")
	assert.Contains(t, edit.Form["reply_markup"], "card:collapse:2301.00042v3")

	answer, ok := api.find("answerCallbackQuery")
	require.True(t, ok)
	assert.Equal(t, "Bookmarked under q-bio.QM", answer.Form["text"])
}

func TestCallbackHandler_UnknownPaper(t *testing.T) {
	h, api := newTestHandler(t, paperstest.NewProvider(nil))

	h.callbackHandler(context.Background(), h.bot, callbackUpdate("card:expand:0000.00000"))

	_, edited := api.find("editMessageText")
	assert.False(t, edited)
	answer, ok := api.find("answerCallbackQuery")
	require.True(t, ok)
	assert.Equal(t, "Paper not found", answer.Form["text"])
	assert.Empty(t, h.bookmarks.ListByCategory())
}
