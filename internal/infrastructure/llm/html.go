package llm

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// textFromHTML strips markup from abstracts before they reach a prompt.
// Feed abstracts occasionally carry <p> wrappers and inline math markup;
// input that fails to parse passes through unchanged.
func textFromHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
