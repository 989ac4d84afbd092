// Package ocr recognises text in images. It is used to give images that
// carry no description an alternative text.
//
// This package wraps the Tesseract OCR engine via gosseract. It requires
// Tesseract to be installed on the system and the "ocr" build tag:
//
//	go build -tags ocr
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev
package ocr

import (
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/tsawler/docstory/model"
)

// ErrOCRNotEnabled is returned when OCR functions are called but OCR support
// was not compiled in. Rebuild with -tags ocr to enable OCR support.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// MaxAltTextLength bounds generated alternative text, in runes.
const MaxAltTextLength = 125

// Recognizer turns an image file into text.
type Recognizer interface {
	RecognizeFile(path string) (string, error)
}

// AltText collapses recognised text to one line and shortens it to at most
// MaxAltTextLength runes, cutting at a word boundary where possible.
func AltText(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(s) <= MaxAltTextLength {
		return s
	}
	r := []rune(s)[:MaxAltTextLength]
	cut := string(r)
	if i := strings.LastIndexByte(cut, ' '); i > MaxAltTextLength/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}

// FillAltText sets the alternative text of images that have none from the
// text recognised in them. Images whose recognition fails or yields no text
// are left unchanged. It returns the number of images updated.
func FillAltText(blocks []model.Block, r Recognizer, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	n := 0
	for _, b := range blocks {
		img, ok := b.(*model.Image)
		if !ok || img.AltText != "" || img.SourcePath == "" {
			continue
		}
		text, err := r.RecognizeFile(img.SourcePath)
		if err != nil {
			logger.Warn("image text not recognised", "path", img.SourcePath, "error", err)
			continue
		}
		if alt := AltText(text); alt != "" {
			img.AltText = alt
			n++
			logger.Debug("alt text recognised", "path", img.SourcePath, "alt", alt)
		}
	}
	return n
}
