package docx

import (
	"encoding/xml"
	"testing"

	"github.com/tsawler/docstory/model"
)

const listNumbering = `
<w:abstractNum w:abstractNumId="0">
  <w:lvl w:ilvl="0"><w:numFmt w:val="bullet"/></w:lvl>
  <w:lvl w:ilvl="1"><w:numFmt w:val="bullet"/></w:lvl>
</w:abstractNum>
<w:abstractNum w:abstractNumId="1">
  <w:lvl w:ilvl="0"><w:numFmt w:val="decimal"/></w:lvl>
  <w:lvl w:ilvl="1"><w:numFmt w:val="lowerLetter"/></w:lvl>
  <w:lvl w:ilvl="2"><w:numFmt w:val="lowerRoman"/></w:lvl>
</w:abstractNum>
<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>
<w:num w:numId="2"><w:abstractNumId w:val="1"/></w:num>
<w:num w:numId="3"><w:abstractNumId w:val="1"/></w:num>
`

func listPara(numID string, level int, text string) string {
	return `<w:p><w:pPr><w:numPr><w:ilvl w:val="` + string(rune('0'+level)) + `"/><w:numId w:val="` + numID + `"/></w:numPr></w:pPr>` +
		`<w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func TestLists(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		numbering string
		styles    string
		want      []*model.Text
	}{
		{
			name:      "bullet list",
			body:      listPara("1", 0, "Apples") + listPara("1", 0, "Pears") + listPara("1", 0, "Plums"),
			numbering: listNumbering,
			want: []*model.Text{
				{Kind: model.TextBulletList, Markup: "<li>Apples</li><li>Pears</li><li>Plums</li>", Pos: 0},
			},
		},
		{
			name:      "nested numbered list",
			body:      listPara("2", 0, "One") + listPara("2", 1, "Sub") + listPara("2", 0, "Two"),
			numbering: listNumbering,
			want: []*model.Text{
				{Kind: model.TextNumberedList, Markup: "<li>One<ol><li>Sub</li></ol></li><li>Two</li>", Pos: 0},
			},
		},
		{
			name:      "deep items flattened",
			body:      listPara("2", 0, "One") + listPara("2", 1, "Sub") + listPara("2", 2, "Deep"),
			numbering: listNumbering,
			want: []*model.Text{
				{Kind: model.TextNumberedList, Markup: "<li>One<ol><li>Sub</li><li>--- Deep</li></ol></li>", Pos: 0},
			},
		},
		{
			name:      "adjacent lists with different numbering split",
			body:      listPara("2", 0, "First") + listPara("3", 0, "Second"),
			numbering: listNumbering,
			want: []*model.Text{
				{Kind: model.TextNumberedList, Markup: "<li>First</li>", Pos: 0},
				{Kind: model.TextNumberedList, Markup: "<li>Second</li>", Pos: 1},
			},
		},
		{
			name: "lists separated by paragraphs",
			body: listPara("1", 0, "a") + para("Middle paragraph.") + listPara("1", 0, "b"),
			numbering: listNumbering,
			want: []*model.Text{
				{Kind: model.TextBulletList, Markup: "<li>a</li>", Pos: 0},
				{Kind: model.TextParagraph, Markup: "Middle paragraph.", Pos: 1},
				{Kind: model.TextBulletList, Markup: "<li>b</li>", Pos: 2},
			},
		},
		{
			name: "without numbering part",
			body: listPara("7", 0, "1. Step one") + listPara("7", 0, "2. Step two"),
			want: []*model.Text{
				{Kind: model.TextNumberedList, Markup: "<li>1. Step one</li><li>2. Step two</li>", Pos: 0},
			},
		},
		{
			name:      "numbering from style",
			body:      styledPara("ListBullet", "Styled item"),
			numbering: listNumbering,
			styles:    `<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/><w:pPr><w:numPr><w:numId w:val="1"/></w:numPr></w:pPr></w:style>`,
			want: []*model.Text{
				{Kind: model.TextBulletList, Markup: "<li>Styled item</li>", Pos: 0},
			},
		},
		{
			name:      "numId zero removes numbering",
			body:      listPara("0", 0, "Not a list item."),
			numbering: listNumbering,
			want: []*model.Text{
				{Kind: model.TextParagraph, Markup: "Not a list item.", Pos: 0},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, _ := extract(t, testPackage{body: tt.body, numbering: tt.numbering, styles: tt.styles})
			if len(blocks) != len(tt.want) {
				t.Fatalf("got %d blocks, want %d", len(blocks), len(tt.want))
			}
			for i, want := range tt.want {
				got, ok := blocks[i].(*model.Text)
				if !ok {
					t.Fatalf("block %d is %T", i, blocks[i])
				}
				if got.Kind != want.Kind || got.Markup != want.Markup || got.Pos != want.Pos {
					t.Errorf("block %d = {%s %q %d}, want {%s %q %d}", i, got.Kind, got.Markup, got.Pos, want.Kind, want.Markup, want.Pos)
				}
			}
		})
	}
}

func TestLists_TypeCoercionWarns(t *testing.T) {
	body := listPara("1", 0, "Bullet root") + listPara("2", 1, "Numbered child")
	blocks, warnings := extract(t, testPackage{body: body, numbering: listNumbering})
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if got := blocks[0].(*model.Text); got.Kind != model.TextBulletList {
		t.Errorf("Kind = %s, want bullet list", got.Kind)
	}
	if len(warnings) != 1 || warnings[0].Kind != model.WarningStructural {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestNumberingResolver_ResolveLevel(t *testing.T) {
	var numbering numberingXML
	data := `<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` + listNumbering + `</w:numbering>`
	if err := xml.Unmarshal([]byte(data), &numbering); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	nr := NewNumberingResolver(&numbering)

	tests := []struct {
		numID  string
		level  int
		want   model.TextKind
		wantOK bool
	}{
		{"1", 0, model.TextBulletList, true},
		{"2", 0, model.TextNumberedList, true},
		{"2", 2, model.TextNumberedList, true},
		{"2", 5, "", false},
		{"9", 0, "", false},
	}
	for _, tt := range tests {
		kind, ok := nr.ResolveLevel(tt.numID, tt.level)
		if kind != tt.want || ok != tt.wantOK {
			t.Errorf("ResolveLevel(%s, %d) = %q, %v, want %q, %v", tt.numID, tt.level, kind, ok, tt.want, tt.wantOK)
		}
	}

	empty := NewNumberingResolver(nil)
	if _, ok := empty.ResolveLevel("1", 0); ok {
		t.Error("nil numbering resolved a level")
	}
}

func TestGuessListKind(t *testing.T) {
	tests := []struct {
		text string
		want model.TextKind
	}{
		{"Order of operations", model.TextNumberedList},
		{"3) third", model.TextNumberedList},
		{"b. second", model.TextNumberedList},
		{"iv: fourth", model.TextNumberedList},
		{"Just a bullet", model.TextBulletList},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			p := fragment(t, para(tt.text))
			if got := guessListKind(p, tt.text); got != tt.want {
				t.Errorf("guessListKind = %s, want %s", got, tt.want)
			}
		})
	}
}
