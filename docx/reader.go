// Package docx extracts typed content blocks from DOCX (Office Open XML)
// documents.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/tsawler/docstory/model"
)

const (
	contentTypesPath = "[Content_Types].xml"
	documentPath     = "word/document.xml"
	relsPath         = "word/_rels/document.xml.rels"
	stylesPath       = "word/styles.xml"
	numberingPath    = "word/numbering.xml"
)

// DefaultMaxExtractedSize bounds the uncompressed size of an archive.
const DefaultMaxExtractedSize = 1 << 30

// ErrArchiveTooLarge is returned when an archive expands beyond
// Config.MaxExtractedSize.
var ErrArchiveTooLarge = errors.New("archive expands beyond size limit")

// ContainerError reports a document that cannot be opened at all.
type ContainerError struct {
	Path string
	Err  error
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("docx container %s: %v", e.Path, e.Err)
}

func (e *ContainerError) Unwrap() error { return e.Err }

// Config holds options for reading a document.
type Config struct {
	// Logger receives debug traces and warnings. Defaults to slog.Default().
	Logger *slog.Logger

	// MediaDir receives uniquely named copies of the document's images.
	// Defaults to <os temp>/docstory-media.
	MediaDir string

	// TempDir is the parent of the extraction directory. Defaults to the
	// system temp directory.
	TempDir string

	// KeepExtracted leaves the extraction directory on disk after Close.
	// The caller then owns it; see Dir.
	KeepExtracted bool

	// MaxExtractedSize bounds the total uncompressed bytes written during
	// extraction. Zero means DefaultMaxExtractedSize.
	MaxExtractedSize int64
}

// DefaultConfig returns the default reader configuration.
func DefaultConfig() Config {
	return Config{
		Logger:   slog.Default(),
		MediaDir: filepath.Join(os.TempDir(), "docstory-media"),
	}
}

// Relationships are the image and hyperlink tables of the main document
// part. ImageOrder keeps image ids in manifest order.
type Relationships struct {
	Images     map[string]string
	ImageOrder []string
	Hyperlinks map[string]string
}

// Reader provides access to DOCX document content.
type Reader struct {
	config    Config
	logger    *slog.Logger
	path      string
	zipReader *zip.ReadCloser
	dir       string

	body      *etree.Element
	rels      Relationships
	styles    *StyleResolver
	numbering *NumberingResolver
}

// Open opens a DOCX file for reading with the default configuration.
func Open(filename string) (*Reader, error) {
	return OpenWithConfig(filename, DefaultConfig())
}

// OpenWithConfig opens a DOCX file and extracts it to a temporary
// directory so that media files can be copied from disk.
func OpenWithConfig(filename string, config Config) (*Reader, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MediaDir == "" {
		config.MediaDir = DefaultConfig().MediaDir
	}
	if config.MaxExtractedSize <= 0 {
		config.MaxExtractedSize = DefaultMaxExtractedSize
	}

	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, &ContainerError{Path: filename, Err: fmt.Errorf("opening ZIP archive: %w", err)}
	}

	r := &Reader{
		config:    config,
		logger:    config.Logger,
		path:      filename,
		zipReader: zr,
	}

	if err := r.validate(); err != nil {
		zr.Close()
		return nil, &ContainerError{Path: filename, Err: err}
	}

	if err := r.extract(); err != nil {
		r.Close()
		return nil, &ContainerError{Path: filename, Err: fmt.Errorf("extracting archive: %w", err)}
	}

	if err := r.parseDocument(); err != nil {
		r.Close()
		return nil, &ContainerError{Path: filename, Err: fmt.Errorf("parsing document: %w", err)}
	}

	// Relationships, styles and numbering are optional parts.
	if err := r.parseRelationships(); err != nil {
		r.logger.Warn("relationships unreadable", "path", filename, "error", err)
	}
	r.parseStyles()
	r.parseNumbering()

	r.logger.Debug("docx opened",
		"path", filename,
		"dir", r.dir,
		"images", len(r.rels.Images),
		"hyperlinks", len(r.rels.Hyperlinks))
	return r, nil
}

// Close releases the archive and, unless KeepExtracted is set, removes the
// extraction directory. Copied media files are left in MediaDir.
func (r *Reader) Close() error {
	var errs []error
	if r.zipReader != nil {
		errs = append(errs, r.zipReader.Close())
		r.zipReader = nil
	}
	if r.dir != "" && !r.config.KeepExtracted {
		errs = append(errs, os.RemoveAll(r.dir))
		r.dir = ""
	}
	return errors.Join(errs...)
}

// Dir returns the extraction directory.
func (r *Reader) Dir() string {
	return r.dir
}

// Relationships returns the document's image and hyperlink tables.
func (r *Reader) Relationships() Relationships {
	return r.rels
}

// validate checks that required DOCX files exist.
func (r *Reader) validate() error {
	fileMap := make(map[string]bool)
	for _, f := range r.zipReader.File {
		fileMap[f.Name] = true
	}
	for _, name := range []string{contentTypesPath, documentPath} {
		if !fileMap[name] {
			return fmt.Errorf("missing required file: %s", name)
		}
	}
	return nil
}

// extract writes every archive entry below a fresh temporary directory.
// Entries that would land outside it are skipped.
func (r *Reader) extract() error {
	dir, err := os.MkdirTemp(r.config.TempDir, "docstory-docx-")
	if err != nil {
		return err
	}
	r.dir = dir

	remaining := r.config.MaxExtractedSize
	for _, f := range r.zipReader.File {
		target := filepath.Join(dir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, dir+string(os.PathSeparator)) {
			r.logger.Warn("archive entry escapes extraction directory", "entry", f.Name)
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		n, err := extractFile(f, target, remaining)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		remaining -= n
	}
	return nil
}

// extractFile copies one entry to target, writing at most limit bytes.
func extractFile(f *zip.File, target string, limit int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, io.LimitReader(rc, limit+1))
	if err != nil {
		out.Close()
		return n, err
	}
	if n > limit {
		out.Close()
		return n, ErrArchiveTooLarge
	}
	return n, out.Close()
}

// readPart reads an extracted package part.
func (r *Reader) readPart(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(r.dir, filepath.FromSlash(name)))
}

// parseDocument parses the main document part and locates its body.
func (r *Reader) parseDocument() error {
	data, err := r.readPart(documentPath)
	if err != nil {
		return err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("reading document.xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return errors.New("document.xml has no root element")
	}
	r.body = root.SelectElement("body")
	if r.body == nil {
		return errors.New("document.xml has no body")
	}
	return nil
}

// parseRelationships builds the image and hyperlink tables.
func (r *Reader) parseRelationships() error {
	r.rels = Relationships{
		Images:     make(map[string]string),
		Hyperlinks: make(map[string]string),
	}
	data, err := r.readPart(relsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return err
	}
	for _, rel := range rels.Relationships {
		typ := strings.ToLower(rel.Type)
		switch {
		case strings.Contains(typ, "image"):
			r.rels.Images[rel.ID] = rel.Target
			r.rels.ImageOrder = append(r.rels.ImageOrder, rel.ID)
		case strings.Contains(typ, "hyperlink"):
			r.rels.Hyperlinks[rel.ID] = rel.Target
		}
	}
	return nil
}

// parseStyles loads styles.xml. Without it every style resolves to its id.
func (r *Reader) parseStyles() {
	var styles *stylesXML
	if data, err := r.readPart(stylesPath); err == nil {
		styles = &stylesXML{}
		if err := xml.Unmarshal(bytes.TrimSpace(data), styles); err != nil {
			r.logger.Warn("styles.xml unreadable", "error", err)
			styles = nil
		}
	}
	r.styles = NewStyleResolver(styles)
}

// parseNumbering loads numbering.xml. Without it list kinds are guessed.
func (r *Reader) parseNumbering() {
	var numbering *numberingXML
	if data, err := r.readPart(numberingPath); err == nil {
		numbering = &numberingXML{}
		if err := xml.Unmarshal(bytes.TrimSpace(data), numbering); err != nil {
			r.logger.Warn("numbering.xml unreadable", "error", err)
			numbering = nil
		}
	}
	r.numbering = NewNumberingResolver(numbering)
}

// Blocks walks the document body and returns its content blocks in
// document order together with the warnings raised along the way.
func (r *Reader) Blocks() ([]model.Block, []model.Warning, error) {
	if r.body == nil {
		return nil, nil, errors.New("document not parsed")
	}
	b := newBodyParser(r)
	blocks := b.parse()
	r.logger.Debug("blocks extracted", "path", r.path, "blocks", len(blocks), "warnings", len(b.warnings))
	return blocks, b.warnings, nil
}
