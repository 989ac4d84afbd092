package docx

import (
	"encoding/xml"
	"testing"
)

func TestNewStyleResolver_Nil(t *testing.T) {
	sr := NewStyleResolver(nil)
	if sr == nil {
		t.Fatal("NewStyleResolver(nil) returned nil")
	}

	style := sr.Resolve("Heading1")
	if style.ID != "Heading1" || style.Name != "" {
		t.Errorf("ID = %q, Name = %q", style.ID, style.Name)
	}
	if style.OutlineLevel != -1 {
		t.Errorf("OutlineLevel = %d, want -1", style.OutlineLevel)
	}
}

func TestStyleResolver_Inheritance(t *testing.T) {
	const data = `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:style w:type="paragraph" w:styleId="Base">
    <w:name w:val="Base"/>
    <w:pPr><w:outlineLvl w:val="1"/></w:pPr>
    <w:rPr><w:sz w:val="28"/></w:rPr>
  </w:style>
  <w:style w:type="paragraph" w:styleId="Derived">
    <w:name w:val="Derived Style"/>
    <w:basedOn w:val="Base"/>
    <w:rPr><w:sz w:val="36"/></w:rPr>
  </w:style>
  <w:style w:type="paragraph" w:styleId="ListBullet">
    <w:name w:val="List Bullet"/>
    <w:pPr><w:numPr><w:ilvl w:val="1"/><w:numId w:val="4"/></w:numPr></w:pPr>
  </w:style>
  <w:style w:type="paragraph" w:styleId="LoopA"><w:name w:val="A"/><w:basedOn w:val="LoopB"/></w:style>
  <w:style w:type="paragraph" w:styleId="LoopB"><w:name w:val="B"/><w:basedOn w:val="LoopA"/></w:style>
</w:styles>`
	var styles stylesXML
	if err := xml.Unmarshal([]byte(data), &styles); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sr := NewStyleResolver(&styles)

	t.Run("derived overrides size and inherits outline level", func(t *testing.T) {
		s := sr.Resolve("Derived")
		if s.Name != "Derived Style" {
			t.Errorf("Name = %q", s.Name)
		}
		if s.OutlineLevel != 1 {
			t.Errorf("OutlineLevel = %d, want 1", s.OutlineLevel)
		}
		if s.FontSize != 18 {
			t.Errorf("FontSize = %v, want 18", s.FontSize)
		}
	})

	t.Run("style numbering", func(t *testing.T) {
		s := sr.Resolve("ListBullet")
		if s.NumID != "4" || s.ILvl != 1 {
			t.Errorf("NumID = %q, ILvl = %d", s.NumID, s.ILvl)
		}
	})

	t.Run("cycle terminates", func(t *testing.T) {
		if s := sr.Resolve("LoopA"); s.Name != "A" {
			t.Errorf("Name = %q, want A", s.Name)
		}
	})

	t.Run("cached", func(t *testing.T) {
		if sr.Resolve("Derived") != sr.Resolve("Derived") {
			t.Error("expected the same resolved style")
		}
	})
}

func TestResolvedStyle_MatchesAny(t *testing.T) {
	tests := []struct {
		name     string
		style    *ResolvedStyle
		keywords []string
		want     bool
	}{
		{"nil style", nil, []string{"caption"}, false},
		{"id match", &ResolvedStyle{ID: "Caption"}, []string{"caption"}, true},
		{"name match", &ResolvedStyle{ID: "a1", Name: "Popisek obrázku"}, []string{"caption", "popisek"}, true},
		{"folded umlaut", &ResolvedStyle{Name: "ÜBERSCHRIFT 1"}, []string{"überschrift"}, true},
		{"no match", &ResolvedStyle{ID: "Normal", Name: "Normal"}, []string{"quote"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.style.matchesAny(tt.keywords...); got != tt.want {
				t.Errorf("matchesAny = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseHalfPoints(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"24", 12},
		{"28", 14},
		{"21", 10.5},
		{"", 0},
		{"invalid", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseHalfPoints(tt.input); got != tt.want {
				t.Errorf("parseHalfPoints(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
