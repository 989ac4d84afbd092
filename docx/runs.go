package docx

import (
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/docstory/model"
)

// formatted is the result of converting an element's runs to inline markup.
type formatted struct {
	Markup    string
	Plain     string
	Alignment model.Alignment

	Runs     int
	BoldRuns int
	// Size is the font size in points shared by every sized run, or 0 when
	// sizes are mixed or absent.
	Size float64
}

// BoldMajority reports whether more than half of the runs are bold.
func (f formatted) BoldMajority() bool {
	return f.Runs > 0 && f.BoldRuns*2 > f.Runs
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;", "<", "&lt;", ">", "&gt;")
)

// formatRuns converts every run below el into inline markup. Runs inside a
// w:hyperlink whose relationship resolves are wrapped in a link.
func formatRuns(el *etree.Element, hyperlinks map[string]string) formatted {
	var f formatted

	if jc := el.FindElement(".//jc"); jc != nil {
		f.Alignment = alignmentFromJc(jc.SelectAttrValue("val", ""))
	}

	linked := make(map[*etree.Element]string)
	for _, h := range el.FindElements(".//hyperlink") {
		target, ok := hyperlinks[h.SelectAttrValue("id", "")]
		if !ok {
			continue
		}
		for _, run := range h.FindElements(".//r") {
			linked[run] = target
		}
	}

	var (
		markup, plain strings.Builder
		sizes         = make(map[float64]bool)
	)
	for _, run := range el.FindElements(".//r") {
		f.Runs++
		props := readRunProps(run)
		if props.bold {
			f.BoldRuns++
		}
		if props.size > 0 {
			sizes[props.size] = true
		}

		text := runText(run)
		if text == "" {
			continue
		}
		plain.WriteString(text)
		markup.WriteString(props.wrap(textEscaper.Replace(text), linked[run]))
	}
	if len(sizes) == 1 {
		for s := range sizes {
			f.Size = s
		}
	}

	f.Markup = norm.NFC.String(markup.String())
	f.Plain = norm.NFC.String(plain.String())
	return f
}

// runText concatenates the text nodes of a run. Tabs become \t and a
// break adds a single trailing newline.
func runText(run *etree.Element) string {
	var sb strings.Builder
	hasBreak := false
	for _, child := range run.ChildElements() {
		switch child.Tag {
		case "t":
			sb.WriteString(child.Text())
		case "tab":
			sb.WriteString("\t")
		case "br", "cr":
			hasBreak = true
		}
	}
	if hasBreak {
		sb.WriteString("\n")
	}
	return sb.String()
}

// runProps are the formatting toggles of one run.
type runProps struct {
	bold, italic, underline, strike bool
	sub, sup                        bool
	color                           string
	size                            float64
}

func readRunProps(run *etree.Element) runProps {
	var p runProps
	rPr := run.SelectElement("rPr")
	if rPr == nil {
		return p
	}
	p.bold = toggle(rPr.SelectElement("b"))
	p.italic = toggle(rPr.SelectElement("i"))
	p.strike = toggle(rPr.SelectElement("strike"))
	if u := rPr.SelectElement("u"); u != nil {
		p.underline = u.SelectAttrValue("val", "single") != "none"
	}
	if va := rPr.SelectElement("vertAlign"); va != nil {
		switch va.SelectAttrValue("val", "") {
		case "subscript":
			p.sub = true
		case "superscript":
			p.sup = true
		}
	}
	if c := rPr.SelectElement("color"); c != nil {
		if v := c.SelectAttrValue("val", ""); v != "" && !strings.EqualFold(v, "auto") {
			p.color = v
		}
	}
	if sz := rPr.SelectElement("sz"); sz != nil {
		p.size = parseHalfPoints(sz.SelectAttrValue("val", ""))
	}
	return p
}

// toggle reads an OOXML on/off property: present means on unless its val
// says otherwise.
func toggle(e *etree.Element) bool {
	if e == nil {
		return false
	}
	switch e.SelectAttrValue("val", "true") {
	case "false", "0", "off":
		return false
	}
	return true
}

// wrap applies the run's formatting, innermost first: link, sub, sup, em,
// strong, u, s, then the colour span.
func (p runProps) wrap(s, href string) string {
	if href != "" {
		s = `<a href="` + attrEscaper.Replace(normalizeURL(href)) + `" rel="noopener noreferrer" target="_blank">` + s + `</a>`
	}
	if p.sub {
		s = "<sub>" + s + "</sub>"
	}
	if p.sup {
		s = "<sup>" + s + "</sup>"
	}
	if p.italic {
		s = "<em>" + s + "</em>"
	}
	if p.bold {
		s = "<strong>" + s + "</strong>"
	}
	if p.underline {
		s = "<u>" + s + "</u>"
	}
	if p.strike {
		s = "<s>" + s + "</s>"
	}
	if p.color != "" {
		s = `<span class="sm-text-color-` + attrEscaper.Replace(p.color) + `">` + s + `</span>`
	}
	return s
}

// normalizeURL adds https:// to scheme-less targets. Anchors are kept.
func normalizeURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "#") {
		return u
	}
	return "https://" + u
}

// alignmentFromJc maps a w:jc value to an alignment.
func alignmentFromJc(val string) model.Alignment {
	switch val {
	case "left", "start":
		return model.AlignStart
	case "center":
		return model.AlignCenter
	case "right", "end":
		return model.AlignEnd
	case "both", "justify", "distribute":
		return model.AlignJustify
	default:
		return model.AlignNone
	}
}
