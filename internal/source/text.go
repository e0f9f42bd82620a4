package source

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractText converts an HTML or HTML-encoded string to plain text.
// Entities are unescaped first (feeds often double-encode their
// descriptions), then tags are dropped and whitespace collapsed.
func extractText(content string) string {
	if content == "" {
		return ""
	}
	unescaped := html.UnescapeString(content)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unescaped))
	if err != nil {
		return collapseSpace(unescaped)
	}
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
