// Package htmldoc extracts typed content blocks from HTML documents.
package htmldoc

import "log/slog"

// NavigationExclusionMode controls how navigation, headers, and footers are filtered.
type NavigationExclusionMode int

const (
	// NavigationExclusionNone includes all content without filtering.
	NavigationExclusionNone NavigationExclusionMode = iota

	// NavigationExclusionExplicit skips only explicit semantic HTML5 elements:
	// <nav>, <aside>, and ARIA roles (role="navigation", role="complementary").
	// <header> and <footer> are only skipped when they are direct children of <body>
	// or a single top-level wrapper element.
	NavigationExclusionExplicit

	// NavigationExclusionStandard (default) adds class/id pattern matching
	// such as nav, menu, footer or sidebar.
	NavigationExclusionStandard

	// NavigationExclusionAggressive adds link-density heuristics to standard detection.
	// Sections with very high link-to-text ratios are excluded.
	NavigationExclusionAggressive
)

// Config holds options for reading an HTML document.
type Config struct {
	// Logger receives debug traces and warnings. Defaults to slog.Default().
	Logger *slog.Logger

	// MediaDir receives copies of local images referenced by <img>.
	MediaDir string

	// BaseDir resolves relative image paths. Open sets it to the file's
	// directory when empty.
	BaseDir string

	Navigation NavigationExclusionMode
}
