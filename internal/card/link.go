package card

import (
	"regexp"
	"strings"
)

var githubURL = regexp.MustCompile(`https?://github\.com/\S+`)

// SourceLink returns the first GitHub URL found in summary, or in comment when
// summary has none. It is a heuristic, not a URL parser: the match is cut at
// the first '%' (trailing encoding debris in abstracts) and trailing dots are
// dropped, so the result is not guaranteed to be well formed. ok is false when
// neither field contains a match, which is the normal "no link" outcome.
func SourceLink(summary, comment string) (link string, ok bool) {
	link = githubURL.FindString(summary)
	if link == "" {
		link = githubURL.FindString(comment)
	}
	if link == "" {
		return "", false
	}
	if i := strings.IndexByte(link, '%'); i >= 0 {
		link = link[:i]
	}
	return strings.TrimRight(link, "."), true
}
