// Package docstory provides a fluent API for turning DOCX and HTML
// documents into typed content blocks and publishing them as a story.
//
// Basic usage:
//
//	blocks, warnings, err := docstory.Open("report.docx").Blocks()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", docstory.FormatWarnings(warnings))
//	}
//
// With options:
//
//	blocks, _, err := docstory.Open("report.docx").
//	    WithLogger(logger).
//	    MediaDir("/tmp/story-media").
//	    Blocks()
//
// Publishing goes through a publish.Platform such as portal.Story:
//
//	report, err := docstory.PublishBlocks(ctx, story, blocks)
//
// The docx, htmldoc and publish packages are available for lower-level use.
package docstory

import (
	"context"
	"strings"

	"github.com/tsawler/docstory/model"
	"github.com/tsawler/docstory/publish"
)

// Warning is a non-fatal extraction problem.
type Warning = model.Warning

// Open returns an Extractor for the document at filename. The format is
// detected from the file's content, falling back to its extension.
//
// Example:
//
//	blocks, warnings, err := docstory.Open("document.docx").Blocks()
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// ExtractBlocks returns the blocks of a document with default options.
func ExtractBlocks(filename string) ([]model.Block, []Warning, error) {
	return Open(filename).Blocks()
}

// PublishBlocks places the blocks on the platform, saves the story and
// patches it with the block content.
func PublishBlocks(ctx context.Context, platform publish.Platform, blocks []model.Block, opts ...publish.Option) (*publish.Report, error) {
	return publish.New(platform, opts...).Publish(ctx, blocks)
}

// FormatWarnings joins warnings into one line per warning.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, 0, len(warnings))
	for _, w := range warnings {
		lines = append(lines, w.String())
	}
	return strings.Join(lines, "\n")
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustBlocks wraps a call to Blocks or ToMarkdown, discards the warnings
// and panics if the error is non-nil.
//
// Example:
//
//	blocks := docstory.MustBlocks(docstory.Open("document.docx").Blocks())
func MustBlocks[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
