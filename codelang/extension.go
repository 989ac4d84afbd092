package codelang

import "strings"

// extensions maps language names and detector tags to the tag the story
// code node understands.
var extensions = map[string]string{
	"text":       "txt",
	"txt":        "txt",
	"python":     "py",
	"py":         "py",
	"javascript": "js",
	"js":         "js",
	"jsx":        "jsx",
	"typescript": "ts",
	"ts":         "ts",
	"tsx":        "tsx",
	"java":       "java",
	"csharp":     "cs",
	"c#":         "cs",
	"cs":         "cs",
	"html":       "html",
	"css":        "css",
	"ruby":       "rb",
	"rb":         "rb",
	"php":        "php",
	"c":          "c",
	"cpp":        "cpp",
	"c++":        "cpp",
	"go":         "go",
	"sql":        "sql",
	"shell":      "sh",
	"bash":       "sh",
	"sh":         "sh",
	"xml":        "xml",
	"json":       "json",
	"yaml":       "yaml",
	"yml":        "yaml",
	"markdown":   "md",
	"md":         "md",
	"r":          "r",
	"swift":      "swift",
	"kotlin":     "kt",
	"kt":         "kt",
	"arcade":     "arcade",
}

// Extension maps a language name or tag to the node tag. Unknown
// languages map to Text.
func Extension(lang string) string {
	if ext, ok := extensions[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return ext
	}
	return Text
}
