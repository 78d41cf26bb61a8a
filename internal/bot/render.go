package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/go-telegram/bot/models"

	"paperlab/internal/bookmarks"
	"paperlab/internal/card"
)

const callbackPrefix = "card:"

type verb string

const (
	verbExpand   verb = "expand"
	verbCollapse verb = "collapse"
	// verbBookmark keeps the card collapsed, verbBookmarkOpen keeps it expanded.
	verbBookmark     verb = "bookmark"
	verbBookmarkOpen verb = "bookmark.open"
)

// callback is a decoded inline-button press.
type callback struct {
	Verb verb
	ID   string
}

// Expanded is the card state the press asks for.
func (c callback) Expanded() bool {
	return c.Verb == verbExpand || c.Verb == verbBookmarkOpen
}

// Bookmark reports whether the press adds a bookmark.
func (c callback) Bookmark() bool {
	return c.Verb == verbBookmark || c.Verb == verbBookmarkOpen
}

// parseCallback decodes "card:<verb>:<id>". The id may itself contain ':'.
func parseCallback(data string) (callback, error) {
	rest, ok := strings.CutPrefix(data, callbackPrefix)
	if !ok {
		return callback{}, fmt.Errorf("callback %q: missing %q prefix", data, callbackPrefix)
	}
	v, id, ok := strings.Cut(rest, ":")
	if !ok || id == "" {
		return callback{}, fmt.Errorf("callback %q: missing paper id", data)
	}
	switch verb(v) {
	case verbExpand, verbCollapse, verbBookmark, verbBookmarkOpen:
		return callback{Verb: verb(v), ID: id}, nil
	}
	return callback{}, fmt.Errorf("callback %q: unknown verb %q", data, v)
}

func callbackData(v verb, id string) string {
	return callbackPrefix + string(v) + ":" + id
}

// renderMessage formats a card as Telegram HTML.
func renderMessage(v card.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(v.Title))

	meta := []string{html.EscapeString(v.Age), "[" + html.EscapeString(v.Category) + "]"}
	if v.PDFURL != "" {
		meta = append(meta, fmt.Sprintf(`<a href="%s">pdf</a>`, html.EscapeString(v.PDFURL)))
	}
	if v.SourceLink != "" {
		meta = append(meta, fmt.Sprintf(`<a href="%s">code</a>`, html.EscapeString(v.SourceLink)))
	}
	b.WriteString(strings.Join(meta, " · "))

	if v.Expanded {
		fmt.Fprintf(&b, "\n\n%s\n\n✍️ %s", html.EscapeString(v.Summary), html.EscapeString(v.Authors))
	}
	return b.String()
}

// keyboard builds the toggle and bookmark buttons for a card.
func keyboard(v card.View) models.InlineKeyboardMarkup {
	toggle := models.InlineKeyboardButton{Text: "Expand", CallbackData: callbackData(verbExpand, v.ID)}
	if v.Expanded {
		toggle = models.InlineKeyboardButton{Text: "Collapse", CallbackData: callbackData(verbCollapse, v.ID)}
	}

	mark := models.InlineKeyboardButton{Text: "☆ Bookmark", CallbackData: callbackData(verbBookmark, v.ID)}
	if v.Expanded {
		mark.CallbackData = callbackData(verbBookmarkOpen, v.ID)
	}
	if v.Bookmarked {
		mark.Text = "★ Bookmarked"
	}

	return models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{toggle, mark}},
	}
}

// renderBookmarks lists bookmark groups; names maps category codes to display names.
func renderBookmarks(groups []bookmarks.Group, names map[string]string) string {
	if len(groups) == 0 {
		return "No bookmarks yet."
	}
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n\n")
		}
		heading := g.Category
		if name := names[g.Category]; name != "" {
			heading += " · " + name
		}
		fmt.Fprintf(&b, "<b>%s (%d)</b>", html.EscapeString(heading), len(g.Papers))
		for _, p := range g.Papers {
			fmt.Fprintf(&b, "\n• <a href=\"%s\">%s</a>", html.EscapeString(p.PDFURL), html.EscapeString(card.NormalizeTitle(p.Title)))
		}
	}
	return b.String()
}
