package docx

import (
	"fmt"
	"log/slog"

	"github.com/beevik/etree"

	"github.com/tsawler/docstory/layout"
	"github.com/tsawler/docstory/model"
)

// captionTarget says which kind of block the next caption paragraph may
// attach to.
type captionTarget int

const (
	captionNone captionTarget = iota
	captionImage
	captionTable
)

// bodyParser holds the state of one walk over the document body.
type bodyParser struct {
	r      *Reader
	logger *slog.Logger

	blocks []model.Block
	lists  []model.Block

	// pending list items per numbering id, flushed at the next
	// non-list element.
	pending map[string][]layout.ListItem

	awaiting captionTarget
	awaited  model.Block

	// image relationship ids already used by an emitted image.
	consumed map[string]bool

	warnings []model.Warning
}

func newBodyParser(r *Reader) *bodyParser {
	return &bodyParser{
		r:        r,
		logger:   r.logger,
		pending:  make(map[string][]layout.ListItem),
		consumed: make(map[string]bool),
	}
}

// parse walks the body's children in order. The index of each child is
// the position of the blocks built from it.
func (b *bodyParser) parse() []model.Block {
	for pos, el := range b.r.body.ChildElements() {
		b.element(el, pos)
	}
	b.flushLists()
	return layout.MergeByPosition(b.blocks, b.lists)
}

func (b *bodyParser) element(el *etree.Element, pos int) {
	var err error
	switch el.Tag {
	case "p":
		b.paragraph(el, pos)
	case "tbl":
		err = b.table(el, pos)
	case "AlternateContent":
		err = b.alternateContent(el, pos)
	case "drawing":
		err = b.drawing(el, pos)
	case "sdt":
		if content := el.SelectElement("sdtContent"); content != nil {
			for _, child := range content.ChildElements() {
				b.element(child, pos)
			}
		}
	case "sectPr", "bookmarkStart", "bookmarkEnd", "proofErr":
	default:
		b.logger.Debug("body element skipped", "position", pos, "tag", el.Tag)
	}
	if err != nil {
		b.warn(model.WarningResolution, pos, err.Error())
	}
}

func (b *bodyParser) paragraph(el *etree.Element, pos int) {
	p := &paragraph{
		el:    el,
		pos:   pos,
		style: b.r.styles.Resolve(styleID(el)),
		text:  formatRuns(el, b.r.rels.Hyperlinks),
	}

	if b.awaiting != captionNone && p.style.matchesAny("caption", "popisek") {
		b.attachCaption(p)
		return
	}

	if item, ok := b.r.listItem(el, p.style, pos, p.text); ok {
		b.pending[item.NumID] = append(b.pending[item.NumID], item)
		b.awaiting = captionNone
		return
	}

	b.flushLists()
	block := b.classify(p)
	if block == nil {
		return
	}
	b.emit(block)
}

// attachCaption sets the awaited block's caption from a caption-styled
// paragraph and consumes the paragraph.
func (b *bodyParser) attachCaption(p *paragraph) {
	caption := p.text.Markup
	var previous string
	switch blk := b.awaited.(type) {
	case *model.Image:
		previous, blk.Caption = blk.Caption, caption
	case *model.Table:
		previous, blk.Caption = blk.Caption, caption
	}
	if previous != "" && previous != caption {
		b.warn(model.WarningStructural, p.pos,
			fmt.Sprintf("caption %q replaces %q", abbreviate(p.text.Plain), abbreviate(previous)))
	}
	b.logger.Debug("caption attached", "position", p.pos, "target", b.awaited.Position())
	b.awaiting, b.awaited = captionNone, nil
}

func (b *bodyParser) table(el *etree.Element, pos int) error {
	b.flushLists()
	tbl, err := b.buildTable(el, pos)
	if err != nil {
		return err
	}
	b.emit(tbl)
	return nil
}

// alternateContent handles a body-level mc:AlternateContent, preferring
// the drawing of its Choice branch.
func (b *bodyParser) alternateContent(el *etree.Element, pos int) error {
	var drawing *etree.Element
	if choice := el.FindElement(".//Choice"); choice != nil {
		drawing = choice.FindElement(".//drawing")
	}
	if drawing == nil {
		drawing = el.FindElement(".//drawing")
	}
	if drawing == nil {
		return nil
	}
	return b.drawing(drawing, pos)
}

func (b *bodyParser) drawing(el *etree.Element, pos int) error {
	b.flushLists()
	img, err := b.resolveImage(el, pos)
	if err != nil {
		return fmt.Errorf("image dropped: %w", err)
	}
	b.emit(img)
	return nil
}

// emit appends a block and updates the caption state: images and tables
// wait for a caption, anything else clears the wait.
func (b *bodyParser) emit(block model.Block) {
	b.blocks = append(b.blocks, block)
	switch block.(type) {
	case *model.Image:
		b.awaiting, b.awaited = captionImage, block
	case *model.Table:
		b.awaiting, b.awaited = captionTable, block
	default:
		b.awaiting, b.awaited = captionNone, nil
	}
}

func (b *bodyParser) flushLists() {
	if len(b.pending) == 0 {
		return
	}
	builder := layout.NewListBuilderWithConfig(layout.ListConfig{Logger: b.logger})
	lists, warnings := builder.Build(b.pending)
	b.lists = append(b.lists, lists...)
	for _, w := range warnings {
		b.warn(w.Kind, w.Position, w.Message)
	}
	b.pending = make(map[string][]layout.ListItem)
}

func (b *bodyParser) warn(kind model.WarningKind, pos int, msg string) {
	w := model.Warning{Kind: kind, Position: pos, Message: msg}
	b.warnings = append(b.warnings, w)
	b.logger.Warn("extraction warning", "kind", kind.String(), "position", pos, "message", msg)
}

func abbreviate(s string) string {
	r := []rune(s)
	if len(r) <= 30 {
		return s
	}
	return string(r[:30]) + "..."
}
