package news

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// SummaryMaxLength is the longest summary the editor accepts, in characters
const SummaryMaxLength = 50

// wordsPerMinute is the reading speed used to estimate reading time
const wordsPerMinute = 200

// TruncateWords shortens text to at most maxWords whitespace-separated words,
// appending an ellipsis if anything was cut
func TruncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[:maxWords], " ") + "…"
}

// TrimText collapses runs of whitespace and shortens the result to at most max
// characters, the last of which is an ellipsis if anything was cut
func TrimText(text string, max int) string {
	s := strings.Join(strings.Fields(text), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRightFunc(string(runes[:max-1]), unicode.IsSpace) + "…"
}

// LimitSummary cuts a summary down to SummaryMaxLength characters
func LimitSummary(s string) string {
	runes := []rune(s)
	if len(runes) <= SummaryMaxLength {
		return s
	}
	return string(runes[:SummaryMaxLength])
}

var accentFolds = map[rune]rune{
	'á': 'a', 'ä': 'a', 'à': 'a', 'â': 'a', 'ã': 'a',
	'é': 'e', 'ë': 'e', 'è': 'e', 'ê': 'e',
	'í': 'i', 'ï': 'i', 'ì': 'i', 'î': 'i',
	'ó': 'o', 'ö': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o',
	'ú': 'u', 'ü': 'u', 'ù': 'u', 'û': 'u',
	'ñ': 'n',
}

var dashRuns = regexp.MustCompile(`-+`)

// Slugify derives a URL slug from a title: Spanish accents are folded to ASCII,
// anything other than letters, digits, whitespace and dashes is dropped, and
// whitespace becomes single dashes
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if folded, ok := accentFolds[r]; ok {
			r = folded
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	slug := strings.Join(strings.Fields(b.String()), "-")
	slug = dashRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

var (
	htmlTags   = regexp.MustCompile(`<[^>]+>`)
	blockBreak = regexp.MustCompile(`(?i)</p\s*>|<br\s*/?>`)
)

// PlainText strips HTML tags from article content
func PlainText(content string) string {
	return strings.TrimSpace(htmlTags.ReplaceAllString(content, ""))
}

// ReadingTime estimates how many minutes it takes to read the given content. Empty
// content takes 0 minutes; anything else takes at least 1.
func ReadingTime(content string) int {
	words := len(strings.Fields(PlainText(content)))
	if words == 0 {
		return 0
	}
	return max(1, (words+wordsPerMinute-1)/wordsPerMinute)
}

// Paragraphs splits article content into plain-text paragraphs on blank lines and
// on closing paragraph or line break tags
func Paragraphs(content string) []string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = blockBreak.ReplaceAllString(normalized, "\n\n")
	paragraphs := make([]string, 0)
	for _, p := range strings.Split(normalized, "\n\n") {
		if p = strings.TrimSpace(html.UnescapeString(PlainText(p))); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
