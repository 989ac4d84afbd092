package htmldoc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tsawler/docstory/codelang"
	"github.com/tsawler/docstory/layout"
	"github.com/tsawler/docstory/media"
	"github.com/tsawler/docstory/model"
)

// Reader provides access to HTML document content.
type Reader struct {
	config   Config
	logger   *slog.Logger
	doc      *goquery.Document
	title    string
	metadata map[string]string
}

// Open opens an HTML file for reading. Relative image paths resolve
// against the file's directory.
func Open(filename string) (*Reader, error) {
	return OpenWithConfig(filename, Config{Navigation: NavigationExclusionStandard})
}

// OpenWithConfig opens an HTML file with custom configuration.
func OpenWithConfig(filename string, config Config) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if config.BaseDir == "" {
		config.BaseDir = filepath.Dir(filename)
	}
	return OpenReader(f, config)
}

// OpenReader parses HTML from an io.Reader.
func OpenReader(r io.Reader, config Config) (*Reader, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MediaDir == "" {
		config.MediaDir = filepath.Join(os.TempDir(), "docstory-media")
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	reader := &Reader{
		config:   config,
		logger:   config.Logger,
		doc:      doc,
		metadata: make(map[string]string),
	}
	reader.readHead()
	return reader, nil
}

// Close releases resources associated with the Reader.
func (r *Reader) Close() error {
	return nil
}

// Title returns the document's <title>.
func (r *Reader) Title() string {
	return r.title
}

// Metadata returns the name or property to content pairs of the <meta>
// tags in the document head.
func (r *Reader) Metadata() map[string]string {
	return r.metadata
}

func (r *Reader) readHead() {
	r.title = strings.TrimSpace(r.doc.Find("head title").First().Text())
	r.doc.Find("head meta").Each(func(_ int, m *goquery.Selection) {
		name := m.AttrOr("name", m.AttrOr("property", ""))
		content := m.AttrOr("content", "")
		if name != "" && content != "" {
			r.metadata[name] = content
		}
	})
}

// Blocks maps the body's content elements to blocks in document order.
// Container elements are descended into; every emitted element gets the
// next position.
func (r *Reader) Blocks() ([]model.Block, []model.Warning, error) {
	body := r.doc.Find("body").First()
	if body.Length() == 0 {
		return nil, nil, errors.New("document has no body")
	}
	w := &walker{
		r:       r,
		exclude: newExclusionChecker(r.config.Navigation, body.Nodes[0]),
	}
	w.children(body)
	r.logger.Debug("html blocks extracted", "blocks", len(w.blocks), "warnings", len(w.warnings))
	return w.blocks, w.warnings, nil
}

type walker struct {
	r        *Reader
	exclude  *exclusionChecker
	pos      int
	blocks   []model.Block
	warnings []model.Warning
}

func (w *walker) children(s *goquery.Selection) {
	s.Children().Each(func(_ int, c *goquery.Selection) {
		w.element(c)
	})
}

func (w *walker) next() int {
	p := w.pos
	w.pos++
	return p
}

func (w *walker) element(s *goquery.Selection) {
	if w.exclude.shouldExclude(s.Nodes[0]) {
		w.r.logger.Debug("element excluded", "tag", goquery.NodeName(s))
		return
	}

	switch tag := goquery.NodeName(s); tag {
	case "h1", "h2":
		w.text(s, model.TextHeading2)
	case "h3":
		w.text(s, model.TextHeading3)
	case "h4", "h5", "h6":
		w.text(s, model.TextHeading4)
	case "p":
		if s.Find("img").Length() > 0 && strings.TrimSpace(s.Text()) == "" {
			s.Find("img").Each(func(_ int, img *goquery.Selection) { w.image(img, "") })
			return
		}
		w.text(s, model.TextParagraph)
	case "blockquote":
		w.text(s, model.TextQuote)
	case "pre":
		w.code(s)
	case "hr":
		w.emit(&model.Separator{Pos: w.next()})
	case "img":
		w.image(s, "")
	case "figure":
		caption := inlineMarkup(s.Find("figcaption").First())
		if img := s.Find("img").First(); img.Length() > 0 {
			w.image(img, caption)
		}
	case "ul", "ol":
		w.list(s)
	case "table":
		w.table(s)
	case "div", "main", "article", "section", "header", "footer":
		w.children(s)
	case "script", "style", "noscript", "template", "form", "iframe", "svg":
	default:
		if strings.TrimSpace(s.Text()) != "" {
			w.text(s, model.TextParagraph)
		}
	}
}

func (w *walker) emit(b model.Block) {
	w.blocks = append(w.blocks, b)
}

func (w *walker) warn(kind model.WarningKind, pos int, msg string) {
	w.warnings = append(w.warnings, model.Warning{Kind: kind, Position: pos, Message: msg})
	w.r.logger.Warn("extraction warning", "kind", kind.String(), "position", pos, "message", msg)
}

func (w *walker) text(s *goquery.Selection, kind model.TextKind) {
	markup := inlineMarkup(s)
	if markup == "" {
		return
	}
	w.emit(&model.Text{Kind: kind, Markup: markup, Alignment: alignment(s), Pos: w.next()})
}

// alignment reads text-align from the style attribute or the legacy
// align attribute.
func alignment(s *goquery.Selection) model.Alignment {
	val := strings.ToLower(s.AttrOr("align", ""))
	for _, decl := range strings.Split(s.AttrOr("style", ""), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(strings.ToLower(k)) == "text-align" {
			val = strings.TrimSpace(strings.ToLower(v))
		}
	}
	switch val {
	case "left", "start":
		return model.AlignStart
	case "center":
		return model.AlignCenter
	case "right", "end":
		return model.AlignEnd
	case "justify":
		return model.AlignJustify
	}
	return model.AlignNone
}

func (w *walker) code(s *goquery.Selection) {
	content := strings.Trim(s.Text(), "\n")
	if strings.TrimSpace(content) == "" {
		return
	}
	lang := ""
	if class, ok := s.Find("code").First().Attr("class"); ok {
		for _, c := range strings.Fields(class) {
			if after, found := strings.CutPrefix(c, "language-"); found {
				lang = after
				break
			}
		}
	}
	if lang == "" {
		lang = codelang.Detect(content)
	}
	w.emit(&model.Code{Content: content, Language: lang, Pos: w.next()})
}

// image copies a local image into the media directory. Remote and inline
// data sources cannot be uploaded and are dropped with a warning.
func (w *walker) image(s *goquery.Selection, caption string) {
	pos := w.next()
	src := s.AttrOr("src", "")
	alt := s.AttrOr("alt", "")

	path, err := w.localPath(src)
	if err != nil {
		w.warn(model.WarningResolution, pos, fmt.Sprintf("image %q dropped: %v", src, err))
		return
	}
	copied, err := media.CopyUnique(path, w.r.config.MediaDir)
	if err != nil {
		w.warn(model.WarningResolution, pos, fmt.Sprintf("image %q dropped: %v", src, err))
		return
	}

	img := &model.Image{
		SourcePath:     copied,
		OriginalTarget: src,
		Caption:        alt,
		AltText:        alt,
		Pos:            pos,
	}
	if caption != "" {
		img.Caption = caption
	}

	width, height := attrInt(s, "width"), attrInt(s, "height")
	if dims, err := media.Dimensions(copied); err == nil {
		img.Dimensions = &dims
		width, height = dims.Width, dims.Height
	}
	side := floatSide(s)
	img.Display = media.Display(width, height, side != model.AlignNone)
	if img.Display == model.DisplayFloat {
		img.FloatAlignment = model.AlignEnd
		if side != model.AlignNone {
			img.FloatAlignment = side
		}
	}
	w.emit(img)
}

func (w *walker) localPath(src string) (string, error) {
	if src == "" {
		return "", errors.New("missing src")
	}
	u, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "", "file":
	default:
		return "", fmt.Errorf("unsupported %s source", u.Scheme)
	}
	path := filepath.FromSlash(u.Path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.r.config.BaseDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// floatSide reports the side an image floats to, or AlignNone.
func floatSide(s *goquery.Selection) model.Alignment {
	val := strings.ToLower(s.AttrOr("align", ""))
	for _, decl := range strings.Split(s.AttrOr("style", ""), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(strings.ToLower(k)) == "float" {
			val = strings.TrimSpace(strings.ToLower(v))
		}
	}
	switch val {
	case "left":
		return model.AlignStart
	case "right":
		return model.AlignEnd
	}
	return model.AlignNone
}

func attrInt(s *goquery.Selection, name string) int {
	n, _ := strconv.Atoi(strings.TrimSuffix(s.AttrOr(name, ""), "px"))
	return n
}

// list renders a ul or ol, including nested lists, through the list
// engine so HTML lists get the same two-level shape as DOCX lists.
func (w *walker) list(s *goquery.Selection) {
	pos := w.next()
	numID := "html-" + strconv.Itoa(pos)
	var items []layout.ListItem
	collectItems(s, 0, pos, numID, &items)
	if len(items) == 0 {
		return
	}

	builder := layout.NewListBuilderWithConfig(layout.ListConfig{Logger: w.r.logger})
	blocks, warnings := builder.Build(map[string][]layout.ListItem{numID: items})
	for _, b := range blocks {
		w.emit(b)
	}
	for _, wn := range warnings {
		w.warn(wn.Kind, wn.Position, wn.Message)
	}
}

func collectItems(list *goquery.Selection, level, pos int, numID string, items *[]layout.ListItem) {
	kind := model.TextBulletList
	if goquery.NodeName(list) == "ol" {
		kind = model.TextNumberedList
	}
	list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		own := li.Clone()
		own.Find("ul, ol").Remove()
		if markup := inlineMarkup(own); markup != "" {
			*items = append(*items, layout.ListItem{Text: markup, Level: level, Type: kind, Position: pos, NumID: numID})
		}
		li.ChildrenFiltered("ul, ol").Each(func(_ int, sub *goquery.Selection) {
			collectItems(sub, level+1, pos, numID, items)
		})
	})
}

// maxColspan is the largest colspan browsers honour.
const maxColspan = 1000

// table builds a rectangular table; colspan pads empty cells.
func (w *walker) table(s *goquery.Selection) {
	pos := w.next()
	var rows [][]string
	width := 0
	s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Closest("table").Nodes[0] != s.Nodes[0] {
			return
		}
		var row []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, inlineMarkup(td))
			span := min(attrInt(td, "colspan"), maxColspan)
			for i := 1; i < span; i++ {
				row = append(row, "")
			}
		})
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, row)
	})
	if len(rows) == 0 {
		w.warn(model.WarningResolution, pos, "table has no rows")
		return
	}
	for i := range rows {
		for len(rows[i]) < width {
			rows[i] = append(rows[i], "")
		}
	}
	w.emit(&model.Table{
		Rows:    rows,
		Caption: inlineMarkup(s.ChildrenFiltered("caption").First()),
		Pos:     pos,
	})
}
