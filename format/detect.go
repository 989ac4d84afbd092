// Package format detects which extractor handles an input file.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a supported input format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// DOCX indicates a Microsoft Word (.docx) document.
	DOCX
	// HTML indicates an HTML document.
	HTML
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case DOCX:
		return "DOCX"
	case HTML:
		return "HTML"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case DOCX:
		return ".docx"
	case HTML:
		return ".html"
	default:
		return ""
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return DOCX
	case ".html", ".htm":
		return HTML
	default:
		return Unknown
	}
}

// DetectFile uses the extension when it is conclusive and falls back to
// inspecting the file content.
func DetectFile(filename string) (Format, error) {
	if f := Detect(filename); f != Unknown {
		return f, nil
	}
	fh, err := os.Open(filename)
	if err != nil {
		return Unknown, err
	}
	defer fh.Close()
	info, err := fh.Stat()
	if err != nil {
		return Unknown, err
	}
	return DetectFromReader(fh, info.Size())
}

var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// DetectFromReader inspects the content to determine format.
// A ZIP archive is DOCX only if it carries a word/ part.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 512)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if bytes.HasPrefix(magic, zipMagic) {
		zr, err := zip.NewReader(r, size)
		if err != nil {
			return Unknown, err
		}
		for _, f := range zr.File {
			if strings.HasPrefix(f.Name, "word/") {
				return DOCX, nil
			}
		}
		return Unknown, nil
	}

	if looksLikeHTML(magic) {
		return HTML, nil
	}
	return Unknown, nil
}

func looksLikeHTML(data []byte) bool {
	upper := strings.ToUpper(strings.TrimSpace(string(data)))
	switch {
	case strings.HasPrefix(upper, "<!DOCTYPE HTML"), strings.HasPrefix(upper, "<HTML"):
		return true
	case strings.HasPrefix(upper, "<?XML"):
		return strings.Contains(upper, "<HTML")
	}
	return false
}
