package activitysync

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	markupPolicy  = bluemonday.StrictPolicy()
	percentOctets = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	revealedTags  = regexp.MustCompile(`<[^<>]*>`)
)

// SanitizeText reduces submitted free text to a single plain line.
// Markup, invalid UTF-8, percent-encoded octets and repeated whitespace are removed.
// A lone angle bracket in plain text is kept.
func SanitizeText(raw string) string {
	value := strings.ToValidUTF8(raw, "")
	value = markupPolicy.Sanitize(value)
	// the strict policy escapes text; undo that and drop any tag the unescape revealed
	value = revealedTags.ReplaceAllString(html.UnescapeString(value), "")
	value = stripPercentOctets(value)
	return strings.Join(strings.Fields(value), " ")
}

// stripPercentOctets repeats until removal no longer exposes a new octet, so "%%2020" leaves nothing behind.
func stripPercentOctets(value string) string {
	for {
		stripped := percentOctets.ReplaceAllString(value, "")
		if stripped == value {
			return value
		}
		value = stripped
	}
}
