package docstory

import (
	"fmt"
	"log/slog"

	"github.com/tsawler/docstory/docx"
	"github.com/tsawler/docstory/format"
	"github.com/tsawler/docstory/htmldoc"
	"github.com/tsawler/docstory/model"
	"github.com/tsawler/docstory/ocr"
)

// Extractor provides a fluent interface for extracting blocks from DOCX
// and HTML files. Each configuration method returns a new Extractor, so a
// configured Extractor can be reused and shared.
type Extractor struct {
	filename string
	options  ExtractOptions
}

// clone creates a copy of the Extractor.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename: e.filename,
		options:  e.options.clone(),
	}
}

// WithLogger sets the logger that receives traces and warnings.
func (e *Extractor) WithLogger(l *slog.Logger) *Extractor {
	newExt := e.clone()
	if l != nil {
		newExt.options.logger = l
	}
	return newExt
}

// MediaDir sets the directory that receives copies of the document's
// images.
//
// Example:
//
//	blocks, _, err := docstory.Open("doc.docx").MediaDir("media").Blocks()
func (e *Extractor) MediaDir(dir string) *Extractor {
	newExt := e.clone()
	newExt.options.mediaDir = dir
	return newExt
}

// KeepExtracted leaves the unpacked DOCX container on disk.
func (e *Extractor) KeepExtracted() *Extractor {
	newExt := e.clone()
	newExt.options.keepExtracted = true
	return newExt
}

// Navigation sets how HTML navigation and page furniture are skipped.
func (e *Extractor) Navigation(mode htmldoc.NavigationExclusionMode) *Extractor {
	newExt := e.clone()
	newExt.options.navigation = mode
	return newExt
}

// OCRAltText gives images without a description the text recognised in
// them. lang is a Tesseract language list such as "eng+fra"; empty means
// English. Needs a build with the "ocr" tag; otherwise a warning is logged
// and images are left as they are.
func (e *Extractor) OCRAltText(lang string) *Extractor {
	newExt := e.clone()
	newExt.options.ocrAltText = true
	newExt.options.ocrLanguage = lang
	return newExt
}

// Format detects the input format.
func (e *Extractor) Format() (format.Format, error) {
	if e.filename == "" {
		return format.Unknown, fmt.Errorf("no filename specified")
	}
	f, err := format.DetectFile(e.filename)
	if err != nil {
		return format.Unknown, err
	}
	if f == format.Unknown {
		f = format.Detect(e.filename)
	}
	return f, nil
}

// Blocks extracts the document's blocks in reading order.
//
// Example:
//
//	blocks, warnings, err := docstory.Open("doc.docx").Blocks()
func (e *Extractor) Blocks() ([]model.Block, []Warning, error) {
	blocks, warnings, err := e.extract()
	if err != nil || !e.options.ocrAltText {
		return blocks, warnings, err
	}
	e.fillAltText(blocks)
	return blocks, warnings, nil
}

func (e *Extractor) extract() ([]model.Block, []Warning, error) {
	f, err := e.Format()
	if err != nil {
		return nil, nil, err
	}

	switch f {
	case format.DOCX:
		cfg := docx.DefaultConfig()
		cfg.Logger = e.options.logger
		cfg.KeepExtracted = e.options.keepExtracted
		if e.options.mediaDir != "" {
			cfg.MediaDir = e.options.mediaDir
		}
		r, err := docx.OpenWithConfig(e.filename, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open DOCX: %w", err)
		}
		defer r.Close()
		return r.Blocks()

	case format.HTML:
		r, err := htmldoc.OpenWithConfig(e.filename, htmldoc.Config{
			Logger:     e.options.logger,
			MediaDir:   e.options.mediaDir,
			Navigation: e.options.navigation,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open HTML: %w", err)
		}
		defer r.Close()
		return r.Blocks()

	default:
		return nil, nil, fmt.Errorf("unsupported file format: %s", f)
	}
}

func (e *Extractor) fillAltText(blocks []model.Block) {
	logger := e.options.logger
	client, err := ocr.New()
	if err != nil {
		logger.Warn("alt text recognition unavailable", "error", err)
		return
	}
	defer client.Close()
	if e.options.ocrLanguage != "" {
		if err := client.SetLanguage(e.options.ocrLanguage); err != nil {
			logger.Warn("OCR language not set", "language", e.options.ocrLanguage, "error", err)
		}
	}
	n := ocr.FillAltText(blocks, client, logger)
	logger.Info("alt text recognised", "images", n)
}

// ToMarkdown extracts the blocks and renders them as Markdown.
func (e *Extractor) ToMarkdown() (string, []Warning, error) {
	blocks, warnings, err := e.Blocks()
	if err != nil {
		return "", warnings, err
	}
	md, err := Markdown(blocks)
	return md, warnings, err
}
