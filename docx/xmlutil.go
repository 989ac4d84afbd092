package docx

import "github.com/beevik/etree"

// serialize renders an element subtree back to XML text.
func serialize(el *etree.Element) string {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

// plainText concatenates every w:t below el.
func plainText(el *etree.Element) string {
	var s string
	for _, t := range el.FindElements(".//t") {
		s += t.Text()
	}
	return s
}

// styleID returns the paragraph style id of p, or "".
func styleID(p *etree.Element) string {
	if ps := p.FindElement("./pPr/pStyle"); ps != nil {
		return ps.SelectAttrValue("val", "")
	}
	return ""
}
