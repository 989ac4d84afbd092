package docx

import "encoding/xml"

// valXML is the ubiquitous <w:x w:val="..."/> shape.
type valXML struct {
	Val string `xml:"val,attr"`
}

// stylesXML represents the structure of word/styles.xml
type stylesXML struct {
	XMLName xml.Name      `xml:"styles"`
	Styles  []styleDefXML `xml:"style"`
}

// styleDefXML represents a style definition.
type styleDefXML struct {
	Type    string      `xml:"type,attr"` // paragraph, character, table, numbering
	StyleID string      `xml:"styleId,attr"`
	Name    valXML      `xml:"name"`
	BasedOn *valXML     `xml:"basedOn"`
	PPr     stylePPrXML `xml:"pPr"`
	RPr     styleRPrXML `xml:"rPr"`
}

// stylePPrXML holds the paragraph properties a style can contribute.
type stylePPrXML struct {
	OutlineLvl *valXML   `xml:"outlineLvl"`
	NumPr      *numPrXML `xml:"numPr"`
}

// styleRPrXML holds the run properties a style can contribute.
type styleRPrXML struct {
	Sz *valXML `xml:"sz"`
}

// numPrXML references a numbering definition.
type numPrXML struct {
	ILvl  *valXML `xml:"ilvl"`
	NumID *valXML `xml:"numId"`
}

// numberingXML represents word/numbering.xml
type numberingXML struct {
	XMLName      xml.Name         `xml:"numbering"`
	AbstractNums []abstractNumXML `xml:"abstractNum"`
	Nums         []numXML         `xml:"num"`
}

// abstractNumXML represents an abstract numbering definition.
type abstractNumXML struct {
	AbstractNumID string   `xml:"abstractNumId,attr"`
	Levels        []lvlXML `xml:"lvl"`
}

// lvlXML represents a numbering level.
type lvlXML struct {
	ILvl   string `xml:"ilvl,attr"`
	NumFmt valXML `xml:"numFmt"` // decimal, bullet, lowerLetter, upperLetter, lowerRoman, upperRoman
}

// numXML represents a numbering instance.
type numXML struct {
	NumID         string `xml:"numId,attr"`
	AbstractNumID valXML `xml:"abstractNumId"`
}

// relationshipsXML represents _rels/*.rels files
type relationshipsXML struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Relationships []relationshipXML `xml:"Relationship"`
}

// relationshipXML represents a single relationship.
type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"` // External or empty (internal)
}
