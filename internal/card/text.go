package card

import "strings"

// NormalizeTitle replaces every " and " with " & ".
func NormalizeTitle(title string) string {
	return strings.ReplaceAll(title, " and ", " & ")
}

// TruncateSummary keeps text up to and including its third '.' and appends "..".
// Periods are counted blindly, so abbreviations, decimals and URLs all count
// as sentence ends. With fewer than three periods the whole text is kept.
func TruncateSummary(text string) string {
	cut := len(text)
	from := 0
	for n := 0; n < 3; n++ {
		i := strings.IndexByte(text[from:], '.')
		if i < 0 {
			return text + ".."
		}
		cut = from + i + 1
		from = cut
	}
	return text[:cut] + ".."
}
