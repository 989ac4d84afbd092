// Package codelang guesses the programming language of a code snippet.
//
// Detection is an ordered cascade of rules; the first rule that recognises
// the snippet wins. Snippets nothing recognises are plain text ("txt").
package codelang

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Text is the tag for snippets no rule recognises.
const Text = "txt"

// rule is one step of the cascade. match returns the language tag, or ""
// when the rule does not apply.
type rule struct {
	name  string
	match func(code, lower string) string
}

var rules = []rule{
	{"sql", matchSQL},
	{"arcade", matchArcade},
	{"json", matchJSON},
	{"python", matchPython},
	{"csharp", matchCSharp},
	{"javascript", matchJavaScript},
	{"css", matchCSS},
	{"html", matchHTML},
	{"keywords", matchKeywords},
	{"prose", matchProse},
}

// Detect returns the language tag for code.
func Detect(code string) string {
	lang, _ := DetectWithRule(code)
	return lang
}

// DetectWithRule returns the language tag and the name of the rule that
// produced it ("fallback" when none matched, "short" for tiny snippets).
func DetectWithRule(code string) (lang, ruleName string) {
	code = strings.TrimSpace(code)
	if len(code) < 3 {
		return Text, "short"
	}
	lower := strings.ToLower(code)
	for _, r := range rules {
		if lang := r.match(code, lower); lang != "" {
			return lang, r.name
		}
	}
	return Text, "fallback"
}

func anyMatch(patterns []*regexp.Regexp, s string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(s) {
			n++
		}
	}
	return n
}

var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)SELECT\s+.+?\s+FROM`),
	regexp.MustCompile(`(?im)INSERT\s+INTO`),
	regexp.MustCompile(`(?im)UPDATE\s+.+?\s+SET`),
	regexp.MustCompile(`(?im)CREATE\s+TABLE`),
	regexp.MustCompile(`(?im)ALTER\s+TABLE`),
	regexp.MustCompile(`(?im)DROP\s+TABLE`),
	regexp.MustCompile(`(?im)JOIN\s+\w+\s+ON`),
	regexp.MustCompile(`(?im)WHERE\s+\w+\s*[=<>]`),
	regexp.MustCompile(`(?im)ORDER\s+BY\s+\w+`),
	regexp.MustCompile(`(?im)GROUP\s+BY\s+\w+`),
}

func matchSQL(_, lower string) string {
	if anyMatch(sqlPatterns, lower) > 0 {
		return "sql"
	}
	return ""
}

var arcadePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)Geometry\(`),
	regexp.MustCompile(`(?im)(Feature|FeatureSet)\(`),
	regexp.MustCompile(`(?im)When\(`),
	regexp.MustCompile(`(?im)(Text|Count|Concatenate|IIf|IsEmpty)\(`),
	regexp.MustCompile(`(?im)\$feature`),
	regexp.MustCompile(`(?im)\$map`),
	regexp.MustCompile(`(?im)//.*$`),
}

func matchArcade(code, _ string) string {
	if anyMatch(arcadePatterns, code) > 0 {
		return "arcade"
	}
	return ""
}

func matchJSON(code, _ string) string {
	object := strings.HasPrefix(code, "{") && strings.HasSuffix(code, "}")
	array := strings.HasPrefix(code, "[") && strings.HasSuffix(code, "]")
	if (object || array) && json.Valid([]byte(code)) {
		return "json"
	}
	return ""
}

var pythonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)\bdef\s+\w+\s*\(`),
	regexp.MustCompile(`(?im)\bclass\s+\w+\s*:`),
	regexp.MustCompile(`(?im)import\s+[\w.]+`),
	regexp.MustCompile(`(?im)from\s+[\w.]+\s+import`),
	regexp.MustCompile(`(?im)if\s+__name__\s*==\s*['"]__main__['"]`),
	regexp.MustCompile(`(?im)arcpy\.\w+`),
	regexp.MustCompile(`(?im)#.*?$`),
}

func matchPython(code, _ string) string {
	if anyMatch(pythonPatterns, code) > 0 {
		return "py"
	}
	return ""
}

var csharpPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)using\s+System;`),
	regexp.MustCompile(`(?im)namespace\s+\w+`),
	regexp.MustCompile(`(?im)(public|private|protected)\s+(class|interface)`),
	regexp.MustCompile(`(?im)(public|private|protected)\s+\w+\s+\w+\s*\(`),
	regexp.MustCompile(`(?im)Console\.(Write|WriteLine)`),
}

func matchCSharp(code, _ string) string {
	if anyMatch(csharpPatterns, code) > 0 {
		return "cs"
	}
	return ""
}

var (
	jsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)function\s+\w+\s*\(`),
		regexp.MustCompile(`(?im)(const|let|var)\s+\w+\s*=`),
		regexp.MustCompile(`=>`),
		regexp.MustCompile(`(?im)console\.(log|warn|error)`),
		regexp.MustCompile(`(?im)document\.get(Element|ElementsByTagName)`),
		regexp.MustCompile(`(?im)window\.\w+`),
		regexp.MustCompile(`(?im)new\s+\w+\(`),
	}
	tsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)interface\s+\w+`),
		regexp.MustCompile(`(?im)type\s+\w+\s*=`),
		regexp.MustCompile(`(?im):\s*\w+[\[\]<>]*(\s*=|\))`),
		regexp.MustCompile(`(?im)<\w+>[\(\[]`),
		regexp.MustCompile(`(?im)as\s+\w+`),
	}
	markupTag = regexp.MustCompile(`<\w+(\s+\w+=["'].+?["'])*>`)
)

// matchJavaScript separates js, ts, jsx and tsx. TypeScript wins when its
// markers are at least as frequent as plain JavaScript ones.
func matchJavaScript(code, _ string) string {
	js := anyMatch(jsPatterns, code)
	ts := anyMatch(tsPatterns, code)
	if js == 0 && ts == 0 {
		return ""
	}
	if markupTag.MatchString(code) {
		if ts > 0 {
			return "tsx"
		}
		return "jsx"
	}
	if ts > 0 && ts >= js {
		return "ts"
	}
	return "js"
}

var cssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[\w-]+\s*:\s*[^;]+;`),
	regexp.MustCompile(`(?i)\.\w+[\w-]*\s*\{`),
	regexp.MustCompile(`(?i)#\w+[\w-]*\s*\{`),
	regexp.MustCompile(`(?i)@(media|keyframes|import|font-face)`),
	regexp.MustCompile(`(?i)(margin|padding|color|background|font|display):`),
}

func matchCSS(code, _ string) string {
	if !strings.Contains(code, "{") || !strings.ContainsAny(code, "};") {
		return ""
	}
	n := anyMatch(cssPatterns, code)
	if n >= 2 || (n >= 1 && len(code) < 100) {
		return "css"
	}
	return ""
}

var (
	htmlTag    = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*\b[^>]*>`)
	htmlAttr   = regexp.MustCompile(`(?i)\s+(href|src|alt|class|id|style)=["'][^'"]*["']`)
	htmlStrong = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<!DOCTYPE\s+html`),
		regexp.MustCompile(`(?i)<html>|<html\s+`),
		regexp.MustCompile(`(?i)<(div|span|p|a|img|h[1-6])(\s+[^>]*)?>`),
	}
)

func matchHTML(code, _ string) string {
	if !strings.Contains(code, "<") || !strings.Contains(code, ">") {
		return ""
	}
	tags := len(htmlTag.FindAllString(code, -1))
	attrs := len(htmlAttr.FindAllString(code, -1))
	if tags >= 2 || (tags >= 1 && attrs >= 1) {
		diff := strings.Count(code, "<") - strings.Count(code, ">")
		if diff >= -2 && diff <= 2 {
			return "html"
		}
	}
	if anyMatch(htmlStrong, code) > 0 {
		return "html"
	}
	return ""
}

// keywordSets is ordered; on equal scores the earlier language wins.
var keywordSets = []struct {
	lang  string
	words map[string]bool
}{
	{"py", wordSet("def import class self none true false if elif else for in try except")},
	{"js", wordSet("function const let var return true false null undefined this new")},
	{"sql", wordSet("select from where insert update delete create drop alter join")},
	{"cs", wordSet("using namespace public private class void string int bool")},
	{"html", wordSet("div span class id style href src")},
	{"css", wordSet("margin padding color background width height font")},
	{"arcade", wordSet("when feature geometry text count iif")},
}

func wordSet(s string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		m[w] = true
	}
	return m
}

var wordPattern = regexp.MustCompile(`\b(\w+)\b`)

func matchKeywords(_, lower string) string {
	words := wordPattern.FindAllString(lower, -1)
	best, bestScore := "", 0
	for _, set := range keywordSets {
		score := 0
		for _, w := range words {
			if set.words[w] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = set.lang, score
		}
	}
	if bestScore >= 2 {
		return best
	}
	return ""
}

// matchProse handles a paragraph describing code rather than containing it,
// e.g. "Example: add this Python code".
func matchProse(_, lower string) string {
	aboutCode := (strings.Contains(lower, "code") &&
		(strings.Contains(lower, "style") || strings.Contains(lower, "add"))) ||
		strings.Contains(lower, "syntax") || strings.Contains(lower, "example")
	if !aboutCode {
		return ""
	}
	switch {
	case strings.Contains(lower, "python"):
		return "py"
	case strings.Contains(lower, "javascript"):
		return "js"
	case strings.Contains(lower, "html"):
		return "html"
	case strings.Contains(lower, "css"):
		return "css"
	case strings.Contains(lower, "sql"):
		return "sql"
	case strings.Contains(lower, "c#"), strings.Contains(lower, "csharp"):
		return "cs"
	}
	return ""
}
