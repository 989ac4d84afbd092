package htmldoc

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// inlinePolicy keeps the inline markup a story text node understands.
// A built policy is safe for concurrent use.
var inlinePolicy = newInlinePolicy()

func newInlinePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("strong", "em", "u", "s", "sub", "sup", "ul", "ol", "li", "br", "span")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^sm-text-color-[0-9A-Fa-f]{6}$`)).OnElements("span")
	return p
}

// presentational tags rewritten to their semantic equivalents before
// sanitising.
var semanticTags = map[string]string{
	"b":      "strong",
	"i":      "em",
	"strike": "s",
	"del":    "s",
	"ins":    "u",
}

// inlineMarkup returns the sanitised inner HTML of a selection. The
// selection itself is not modified.
func inlineMarkup(s *goquery.Selection) string {
	c := s.Clone()
	for from, to := range semanticTags {
		c.Find(from).Each(func(_ int, el *goquery.Selection) {
			inner, _ := el.Html()
			el.ReplaceWithHtml("<" + to + ">" + inner + "</" + to + ">")
		})
	}
	inner, err := c.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(inlinePolicy.Sanitize(inner))
}
