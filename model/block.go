package model

// BlockType identifies the variant of a content block.
type BlockType int

const (
	BlockTypeUnknown BlockType = iota
	BlockTypeText
	BlockTypeImage
	BlockTypeTable
	BlockTypeCode
	BlockTypeSeparator
)

func (bt BlockType) String() string {
	switch bt {
	case BlockTypeText:
		return "text"
	case BlockTypeImage:
		return "image"
	case BlockTypeTable:
		return "table"
	case BlockTypeCode:
		return "code"
	case BlockTypeSeparator:
		return "separator"
	default:
		return "unknown"
	}
}

// Block is the interface for all content blocks.
type Block interface {
	Type() BlockType
	// Position is the index of the body element the block was built from.
	Position() int
}

// TextKind is the presentation style of a text block.
type TextKind string

const (
	TextHeading2     TextKind = "h2"
	TextHeading3     TextKind = "h3"
	TextHeading4     TextKind = "h4"
	TextParagraph    TextKind = "paragraph"
	TextQuote        TextKind = "quote"
	TextBulletList   TextKind = "bullet-list"
	TextNumberedList TextKind = "numbered-list"
)

// IsHeading reports whether the kind is one of the heading levels.
func (k TextKind) IsHeading() bool {
	return k == TextHeading2 || k == TextHeading3 || k == TextHeading4
}

// IsList reports whether the kind is a rendered list.
func (k TextKind) IsList() bool {
	return k == TextBulletList || k == TextNumberedList
}

// HeadingKind returns the text kind for a heading level between 2 and 4.
// Levels outside that range clamp to the nearest end.
func HeadingKind(level int) TextKind {
	switch {
	case level <= 2:
		return TextHeading2
	case level == 3:
		return TextHeading3
	default:
		return TextHeading4
	}
}

// Alignment is the horizontal alignment of a paragraph or floated image.
// The zero value means "not specified".
type Alignment string

const (
	AlignNone    Alignment = ""
	AlignStart   Alignment = "start"
	AlignCenter  Alignment = "center"
	AlignEnd     Alignment = "end"
	AlignJustify Alignment = "justify"
)

// Display is how an image is laid out in the published story.
type Display string

const (
	DisplayStandard Display = "standard"
	DisplayWide     Display = "wide"
	DisplayFloat    Display = "float"
)

// Dimensions is the pixel size of an image.
type Dimensions struct {
	Width  int
	Height int
}

// Text is a heading, paragraph, quote or rendered list.
// Markup holds inline HTML (strong, em, u, s, sub, sup, a, span, li, ul, ol).
type Text struct {
	Kind      TextKind
	Markup    string
	Alignment Alignment
	Pos       int
}

func (t *Text) Type() BlockType { return BlockTypeText }
func (t *Text) Position() int   { return t.Pos }

// Image references a media file copied out of the source document.
type Image struct {
	SourcePath     string // local copy, uniquely named
	OriginalTarget string // relationship target inside the package, e.g. media/image1.png
	RelID          string
	Caption        string
	AltText        string
	Display        Display
	FloatAlignment Alignment // start or end, only meaningful for DisplayFloat
	Dimensions     *Dimensions
	Pos            int
}

func (i *Image) Type() BlockType { return BlockTypeImage }
func (i *Image) Position() int   { return i.Pos }

// Table is a rectangular matrix of cell markup.
type Table struct {
	Rows    [][]string
	Caption string
	Pos     int
}

func (t *Table) Type() BlockType { return BlockTypeTable }
func (t *Table) Position() int   { return t.Pos }

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumColumns returns the width of the widest row.
func (t *Table) NumColumns() int {
	n := 0
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Code is a code snippet. Language is a short tag such as "py" or "sql".
type Code struct {
	Content  string
	Language string
	Pos      int
}

func (c *Code) Type() BlockType { return BlockTypeCode }
func (c *Code) Position() int   { return c.Pos }

// Separator is a horizontal rule.
type Separator struct {
	Pos int
}

func (s *Separator) Type() BlockType { return BlockTypeSeparator }
func (s *Separator) Position() int   { return s.Pos }
