package docstory

import (
	"log/slog"

	"github.com/tsawler/docstory/htmldoc"
)

// ExtractOptions holds configuration for block extraction.
type ExtractOptions struct {
	logger *slog.Logger

	// Where image copies go; empty means the reader's default.
	mediaDir string

	// DOCX only
	keepExtracted bool

	// HTML only
	navigation htmldoc.NavigationExclusionMode

	// Recognise text in images that have no alternative text
	ocrAltText  bool
	ocrLanguage string
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		logger:     slog.Default(),
		navigation: htmldoc.NavigationExclusionStandard,
	}
}

// clone creates a copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	return o
}
