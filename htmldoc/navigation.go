package htmldoc

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// boilerplatePattern matches class and id values of navigation, banner,
// footer and sidebar containers.
var boilerplatePattern = regexp.MustCompile(
	`(?i)(^|[^a-z])(nav|navbar|navigation|menu|topnav|sidenav|breadcrumb|breadcrumbs|` +
		`site-header|page-header|masthead|banner|` +
		`footer|site-footer|page-footer|colophon|` +
		`sidebar|widget-area|widget|aside)([^a-z]|$)`)

// Link density above which a container with enough links is treated as
// navigation in aggressive mode.
const (
	linkDensityThreshold = 0.6
	linkDensityMinLinks  = 4
)

// exclusionChecker decides which body elements are page furniture rather
// than story content.
type exclusionChecker struct {
	mode        NavigationExclusionMode
	body        *html.Node
	wrapper     *html.Node // single top-level div or main, if any
	densityMemo map[*html.Node]float64
}

func newExclusionChecker(mode NavigationExclusionMode, body *html.Node) *exclusionChecker {
	return &exclusionChecker{
		mode:        mode,
		body:        body,
		wrapper:     topLevelWrapper(body),
		densityMemo: make(map[*html.Node]float64),
	}
}

// topLevelWrapper finds the lone structural wrapper of a body such as
// <body><div id="page">...</div></body>.
func topLevelWrapper(body *html.Node) *html.Node {
	if body == nil {
		return nil
	}
	var found []*html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "div", "main":
			found = append(found, c)
		case "script", "style", "noscript", "template":
		default:
			return nil
		}
	}
	if len(found) == 1 {
		return found[0]
	}
	return nil
}

func (ec *exclusionChecker) shouldExclude(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || ec.mode == NavigationExclusionNone {
		return false
	}
	if ec.explicit(n) {
		return true
	}
	if ec.mode >= NavigationExclusionStandard && ec.byPattern(n) {
		return true
	}
	return ec.mode >= NavigationExclusionAggressive && ec.byLinkDensity(n)
}

// explicit covers <nav>, <aside>, navigation ARIA roles and top-level
// headers and footers.
func (ec *exclusionChecker) explicit(n *html.Node) bool {
	switch n.Data {
	case "nav", "aside":
		return true
	case "header", "footer":
		return ec.isTopLevel(n)
	}
	switch attr(n, "role") {
	case "navigation", "complementary":
		return true
	case "banner", "contentinfo":
		return ec.isTopLevel(n)
	}
	return false
}

func (ec *exclusionChecker) isTopLevel(n *html.Node) bool {
	p := n.Parent
	return p != nil && (p == ec.body || (ec.wrapper != nil && p == ec.wrapper))
}

func (ec *exclusionChecker) byPattern(n *html.Node) bool {
	if c := attr(n, "class"); c != "" && boilerplatePattern.MatchString(c) {
		return true
	}
	id := attr(n, "id")
	return id != "" && boilerplatePattern.MatchString(id)
}

func (ec *exclusionChecker) byLinkDensity(n *html.Node) bool {
	switch n.Data {
	case "div", "section", "ul", "ol":
	default:
		return false
	}
	density, ok := ec.densityMemo[n]
	if !ok {
		if total := textLength(n); total > 0 {
			density = float64(linkTextLength(n)) / float64(total)
		}
		ec.densityMemo[n] = density
	}
	return density > linkDensityThreshold && countLinks(n) >= linkDensityMinLinks
}

func textLength(n *html.Node) int {
	if n.Type == html.TextNode {
		return len(strings.TrimSpace(n.Data))
	}
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += textLength(c)
	}
	return total
}

func linkTextLength(n *html.Node) int {
	if n.Type == html.ElementNode && n.Data == "a" {
		return textLength(n)
	}
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += linkTextLength(c)
	}
	return total
}

func countLinks(n *html.Node) int {
	count := 0
	if n.Type == html.ElementNode && n.Data == "a" {
		count = 1
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countLinks(c)
	}
	return count
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
