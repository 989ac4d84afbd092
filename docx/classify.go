package docx

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/tsawler/docstory/codelang"
	"github.com/tsawler/docstory/layout"
	"github.com/tsawler/docstory/model"
)

// paragraph bundles what the classification rules look at.
type paragraph struct {
	el    *etree.Element
	pos   int
	style *ResolvedStyle
	text  formatted
}

func (p *paragraph) textBlock(kind model.TextKind) *model.Text {
	return &model.Text{Kind: kind, Markup: p.text.Markup, Alignment: p.text.Alignment, Pos: p.pos}
}

// paragraphRule inspects a paragraph. matched stops the cascade; block may
// be nil when the paragraph is intentionally dropped.
type paragraphRule struct {
	name  string
	apply func(b *bodyParser, p *paragraph) (block model.Block, matched bool)
}

// paragraphRules is evaluated in order; the first match wins.
var paragraphRules = []paragraphRule{
	{"drawing", ruleDrawing},
	{"empty", ruleEmpty},
	{"outline level", ruleOutlineLevel},
	{"style number", ruleStyleNumber},
	{"style keyword", ruleStyleKeyword},
	{"font size", ruleFontSize},
	{"upper case", ruleUpperCase},
	{"short bold", ruleShortBold},
	{"paragraph", ruleParagraph},
}

// classify runs the rule cascade over one non-list paragraph.
func (b *bodyParser) classify(p *paragraph) model.Block {
	for _, rule := range paragraphRules {
		if block, ok := rule.apply(b, p); ok {
			if block != nil {
				b.logger.Debug("paragraph classified", "position", p.pos, "rule", rule.name, "type", describe(block))
			}
			return block
		}
	}
	return nil
}

func describe(block model.Block) string {
	if t, ok := block.(*model.Text); ok {
		return string(t.Kind)
	}
	return block.Type().String()
}

func ruleDrawing(b *bodyParser, p *paragraph) (model.Block, bool) {
	drawing := p.el.FindElement(".//drawing")
	if drawing == nil {
		return nil, false
	}
	img, err := b.resolveImage(drawing, p.pos)
	if err != nil {
		b.warn(model.WarningResolution, p.pos, "image dropped: "+err.Error())
		return nil, true
	}
	return img, true
}

func ruleEmpty(_ *bodyParser, p *paragraph) (model.Block, bool) {
	if strings.TrimSpace(p.text.Plain) != "" {
		return nil, false
	}
	if p.text.Alignment == model.AlignNone {
		return nil, true
	}
	return &model.Text{Kind: model.TextParagraph, Alignment: p.text.Alignment, Pos: p.pos}, true
}

func ruleOutlineLevel(_ *bodyParser, p *paragraph) (model.Block, bool) {
	level := -1
	if ol := p.el.FindElement("./pPr/outlineLvl"); ol != nil {
		if n, err := strconv.Atoi(ol.SelectAttrValue("val", "")); err == nil {
			level = n
		}
	} else if p.style != nil {
		level = p.style.OutlineLevel
	}
	if level < 0 || level > 2 {
		return nil, false
	}
	return p.textBlock(model.HeadingKind(level + 2)), true
}

var firstDigits = regexp.MustCompile(`\d+`)

func ruleStyleNumber(_ *bodyParser, p *paragraph) (model.Block, bool) {
	if p.style == nil || p.style.ID == "" {
		return nil, false
	}
	n, err := strconv.Atoi(firstDigits.FindString(p.style.ID))
	if err != nil || n < 1 || n > 3 {
		return nil, false
	}
	return p.textBlock(model.HeadingKind(n + 1)), true
}

var (
	headingKeywords = []string{"title", "heading", "nadpis", "titre", "überschrift"}
	quoteKeywords   = []string{"quote", "citation"}
	codeKeywords    = []string{"code", "source"}
)

func ruleStyleKeyword(b *bodyParser, p *paragraph) (model.Block, bool) {
	switch {
	case p.style.matchesAny(headingKeywords...):
		return p.textBlock(model.TextHeading2), true
	case p.style.matchesAny(quoteKeywords...):
		return p.textBlock(model.TextQuote), true
	case p.style.matchesAny(codeKeywords...):
		lang, rule := codelang.DetectWithRule(p.text.Plain)
		b.logger.Debug("code language detected", "position", p.pos, "language", lang, "rule", rule)
		return &model.Code{Content: p.text.Plain, Language: lang, Pos: p.pos}, true
	}
	return nil, false
}

// ruleFontSize only fires for paragraphs that already look like headings:
// mostly bold, at least 14pt, or carrying explicit spacing.
func ruleFontSize(_ *bodyParser, p *paragraph) (model.Block, bool) {
	size := p.text.Size
	headingLike := p.text.BoldMajority() || size >= layout.HeadingSizeLevel4 ||
		p.el.FindElement("./pPr/spacing") != nil
	if !headingLike || size == 0 {
		return nil, false
	}
	kind, ok := layout.HeadingKindForSize(size)
	if !ok {
		return nil, false
	}
	return p.textBlock(kind), true
}

const shortHeadingRunes = 50

func ruleUpperCase(_ *bodyParser, p *paragraph) (model.Block, bool) {
	text := strings.TrimSpace(p.text.Plain)
	if utf8.RuneCountInString(text) >= shortHeadingRunes || !isUpper(text) {
		return nil, false
	}
	return p.textBlock(model.TextHeading2), true
}

func ruleShortBold(_ *bodyParser, p *paragraph) (model.Block, bool) {
	text := strings.TrimSpace(p.text.Plain)
	if utf8.RuneCountInString(text) >= shortHeadingRunes || strings.HasSuffix(text, ".") ||
		strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") || !p.text.BoldMajority() {
		return nil, false
	}
	return p.textBlock(model.TextHeading3), true
}

func ruleParagraph(_ *bodyParser, p *paragraph) (model.Block, bool) {
	return p.textBlock(model.TextParagraph), true
}

// isUpper reports whether s has at least one cased letter and no lower
// case ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}
