package chatparse

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlMarker = regexp.MustCompile(`(?i)<\s*(html|body|div|table|br|p)\b`)

// LooksLikeHTML reports whether raw text appears to be an HTML document,
// as produced by "forward as HTML" e-mail exports.
func LooksLikeHTML(raw string) bool {
	return htmlMarker.MatchString(raw)
}

// FlattenHTML reduces an HTML e-mail export to plain text lines so the
// detection ladder and parser see the same shape as a pasted conversation.
// On any parse problem the input is returned unchanged.
func FlattenHTML(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	doc.Find("script, style, head").Remove()

	// Block-level elements become line breaks so quoted conversations keep
	// their line structure.
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("\n")
	})
	doc.Find("p, div, tr, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	text := doc.Text()
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return raw
	}
	return strings.Join(lines, "\n")
}
