package docx

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/tsawler/docstory/layout"
	"github.com/tsawler/docstory/model"
)

// NumberingResolver resolves numbering definitions from numbering.xml.
type NumberingResolver struct {
	abstractNums map[string]*abstractNumXML // abstractNumId -> definition
	numMappings  map[string]string          // numId -> abstractNumId
}

// NewNumberingResolver creates a resolver from parsed numbering.xml.
func NewNumberingResolver(numbering *numberingXML) *NumberingResolver {
	nr := &NumberingResolver{
		abstractNums: make(map[string]*abstractNumXML),
		numMappings:  make(map[string]string),
	}

	if numbering == nil {
		return nr
	}

	for i := range numbering.AbstractNums {
		an := &numbering.AbstractNums[i]
		nr.abstractNums[an.AbstractNumID] = an
	}
	for _, num := range numbering.Nums {
		nr.numMappings[num.NumID] = num.AbstractNumID.Val
	}

	return nr
}

// ResolveLevel returns the list kind for a numId and level. ok is false
// when numbering.xml has no usable definition for them.
func (nr *NumberingResolver) ResolveLevel(numID string, level int) (kind model.TextKind, ok bool) {
	abstractID, found := nr.numMappings[numID]
	if !found {
		return "", false
	}
	abstractNum, found := nr.abstractNums[abstractID]
	if !found {
		return "", false
	}

	levelStr := strconv.Itoa(level)
	for _, lvl := range abstractNum.Levels {
		if lvl.ILvl != levelStr {
			continue
		}
		switch lvl.NumFmt.Val {
		case "bullet":
			return model.TextBulletList, true
		case "decimal", "decimalZero", "lowerLetter", "upperLetter", "lowerRoman", "upperRoman", "ordinal":
			return model.TextNumberedList, true
		case "", "none":
			return "", false
		default:
			return model.TextNumberedList, true
		}
	}
	return "", false
}

// IsListParagraph returns true if the numbering reference marks a list.
// numId 0 is Word's way of removing inherited numbering.
func (nr *NumberingResolver) IsListParagraph(numID string) bool {
	return numID != "" && numID != "0"
}

var enumeratorPrefix = regexp.MustCompile(`^(\d+|[a-zA-Z]|[ivxIVX]+)[.):]`)

// listItem reports whether the paragraph is a list item and builds it.
// Numbering comes from the paragraph's own numPr, falling back to its
// style. The list kind comes from numbering.xml when it resolves and from
// text heuristics otherwise.
func (r *Reader) listItem(p *etree.Element, style *ResolvedStyle, pos int, f formatted) (layout.ListItem, bool) {
	numID, level := "", 0
	if numPr := p.FindElement("./pPr/numPr"); numPr != nil {
		if e := numPr.SelectElement("numId"); e != nil {
			numID = e.SelectAttrValue("val", "")
		}
		if e := numPr.SelectElement("ilvl"); e != nil {
			level, _ = strconv.Atoi(e.SelectAttrValue("val", "0"))
		}
	} else if style != nil && style.NumID != "" {
		numID, level = style.NumID, style.ILvl
	}
	if !r.numbering.IsListParagraph(numID) {
		return layout.ListItem{}, false
	}
	if level < 0 {
		level = 0
	}

	kind, ok := r.numbering.ResolveLevel(numID, level)
	if !ok {
		kind = guessListKind(p, f.Plain)
	}
	return layout.ListItem{
		Text:     f.Markup,
		Level:    level,
		Type:     kind,
		Position: pos,
		NumID:    numID,
	}, true
}

// guessListKind classifies a list item without a numbering definition.
func guessListKind(p *etree.Element, text string) model.TextKind {
	clean := strings.TrimSpace(text)
	lower := strings.ToLower(clean)
	switch {
	case strings.Contains(lower, "order"), strings.Contains(lower, "number"):
		return model.TextNumberedList
	case enumeratorPrefix.MatchString(clean):
		return model.TextNumberedList
	}
	raw := serialize(p)
	if strings.Contains(raw, "decimal") || strings.Contains(raw, "number") {
		return model.TextNumberedList
	}
	return model.TextBulletList
}
