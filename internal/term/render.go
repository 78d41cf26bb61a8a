// Package term renders paper cards for the terminal.
package term

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"paperlab/internal/bookmarks"
	"paperlab/internal/card"
	"paperlab/internal/catalog"
)

const defaultWidth = 88

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	linkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Underline(true)
	authorStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("147"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	bookmarkGlyph = map[bool]string{true: "★", false: "☆"}
)

// Renderer lays cards out for a fixed terminal width.
type Renderer struct {
	width int
}

// NewRenderer returns a renderer; width <= 0 picks a default.
func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}
	return &Renderer{width: width}
}

// inner is the text width left inside the card border and padding.
func (r *Renderer) inner() int {
	if r.width < 20 {
		return 16
	}
	return r.width - 4
}

// Card renders one card.
func (r *Renderer) Card(v card.View) string {
	w := r.inner()

	lines := []string{
		titleStyle.Render(wordwrap.String(bookmarkGlyph[v.Bookmarked]+" "+v.Title, w)),
		metaStyle.Render(fmt.Sprintf("%s  [%s]  %s", v.Age, v.Category, v.ID)),
		linkStyle.Render(v.PDFURL),
	}
	if v.SourceLink != "" {
		lines = append(lines, linkStyle.Render(v.SourceLink))
	}
	if v.Expanded {
		lines = append(lines, "", wordwrap.String(v.Summary, w), "", authorStyle.Render(wordwrap.String("✍️ "+v.Authors, w)))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// Cards renders cards one after another.
func (r *Renderer) Cards(views []card.View) string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, r.Card(v))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

// Bookmarks renders grouped bookmarks.
func (r *Renderer) Bookmarks(groups []bookmarks.Group) string {
	if len(groups) == 0 {
		return metaStyle.Render("No bookmarks yet.")
	}
	var b strings.Builder
	for _, g := range groups {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", g.Category, len(g.Papers))))
		b.WriteString("\n")
		for _, p := range g.Papers {
			b.WriteString("  " + wordwrap.String(card.NormalizeTitle(p.Title), r.inner()) + "\n")
		}
	}
	return b.String()
}

// Categories renders the taxonomy as an aligned two-column list.
func (r *Renderer) Categories(cats []catalog.Category) string {
	codeWidth := 0
	for _, c := range cats {
		codeWidth = max(codeWidth, len(c.Code))
	}
	code := headerStyle.Width(codeWidth + 2)

	rows := make([]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, code.Render(c.Code), c.Name))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
