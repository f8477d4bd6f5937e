package story

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// richTextPolicy allows the markup the screen editor produces (headings,
// emphasis, lists, links) and strips everything executable.
var richTextPolicy = bluemonday.UGCPolicy()

// SanitizeRichText cleans authored rich markup before it is stored.
// Text fields are opaque payloads everywhere else; this is the single
// sanitize-before-render chokepoint.
func SanitizeRichText(text string) string {
	return richTextPolicy.Sanitize(text)
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
	keywordPattern    = regexp.MustCompile(`[^a-z0-9]+`)
)

// StripTags reduces sanitized markup to plain text for terminal display.
func StripTags(text string) string {
	plain := tagPattern.ReplaceAllString(text, "")
	plain = strings.ReplaceAll(plain, "&nbsp;", " ")
	plain = strings.ReplaceAll(plain, "&amp;", "&")
	plain = strings.ReplaceAll(plain, "&lt;", "<")
	plain = strings.ReplaceAll(plain, "&gt;", ">")
	plain = whitespacePattern.ReplaceAllString(plain, " ")
	return strings.TrimSpace(plain)
}

// NormalizeKeyWord canonicalizes a currency or item keyword: lowercase,
// non-alphanumerics collapsed to single underscores.
func NormalizeKeyWord(keyWord string) string {
	k := strings.ToLower(strings.TrimSpace(keyWord))
	k = keywordPattern.ReplaceAllString(k, "_")
	return strings.Trim(k, "_")
}

var titleCaser = cases.Title(language.English)

// DisplayNameFromKeyWord derives a player-facing name from a keyword when
// the author left the display name blank.
func DisplayNameFromKeyWord(keyWord string) string {
	return titleCaser.String(strings.ReplaceAll(keyWord, "_", " "))
}
