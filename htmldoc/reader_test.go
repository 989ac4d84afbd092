package htmldoc

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tsawler/docstory/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func blocksOf(t *testing.T, doc string) ([]model.Block, []model.Warning) {
	t.Helper()
	reader, err := OpenReader(strings.NewReader(doc), Config{Logger: quietLogger(), MediaDir: t.TempDir()})
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	blocks, warnings, err := reader.Blocks()
	if err != nil {
		t.Fatalf("Blocks failed: %v", err)
	}
	return blocks, warnings
}

func TestOpenReader_Head(t *testing.T) {
	doc := `<html><head><title> Harbour walk </title>
<meta name="author" content="Ann">
<meta property="og:type" content="article">
<meta name="empty" content="">
</head><body><p>x</p></body></html>`
	reader, err := OpenReader(strings.NewReader(doc), Config{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	if reader.Title() != "Harbour walk" {
		t.Errorf("Title = %q", reader.Title())
	}
	want := map[string]string{"author": "Ann", "og:type": "article"}
	if !reflect.DeepEqual(reader.Metadata(), want) {
		t.Errorf("Metadata = %v, want %v", reader.Metadata(), want)
	}
}

func TestBlocks_Text(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		kind   model.TextKind
		markup string
		align  model.Alignment
	}{
		{"h1 maps to heading2", `<h1>Top</h1>`, model.TextHeading2, "Top", ""},
		{"h3", `<h3>Third</h3>`, model.TextHeading3, "Third", ""},
		{"h6 clamps to heading4", `<h6>Tiny</h6>`, model.TextHeading4, "Tiny", ""},
		{"paragraph keeps inline markup", `<p>A <strong>bold</strong> and <em>soft</em> word</p>`, model.TextParagraph, "A <strong>bold</strong> and <em>soft</em> word", ""},
		{"presentational tags rewritten", `<p><b>B</b><i>I</i><del>D</del></p>`, model.TextParagraph, "<strong>B</strong><em>I</em><s>D</s>", ""},
		{"disallowed markup stripped", `<p onclick="x()">Hi <font color="red">there</font><script>alert(1)</script></p>`, model.TextParagraph, "Hi there", ""},
		{"colour span kept", `<p><span class="sm-text-color-FF0000">red</span></p>`, model.TextParagraph, `<span class="sm-text-color-FF0000">red</span>`, ""},
		{"style alignment", `<p style="color: red; text-align: center">Mid</p>`, model.TextParagraph, "Mid", model.AlignCenter},
		{"legacy alignment", `<p align="right">Right</p>`, model.TextParagraph, "Right", model.AlignEnd},
		{"blockquote", `<blockquote>Quoted words</blockquote>`, model.TextQuote, "Quoted words", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, _ := blocksOf(t, "<html><body>"+tt.html+"</body></html>")
			if len(blocks) != 1 {
				t.Fatalf("got %d blocks, want 1", len(blocks))
			}
			txt, ok := blocks[0].(*model.Text)
			if !ok {
				t.Fatalf("block is %T", blocks[0])
			}
			if txt.Kind != tt.kind || txt.Markup != tt.markup || txt.Alignment != tt.align {
				t.Errorf("got {%s %q %q}, want {%s %q %q}", txt.Kind, txt.Markup, txt.Alignment, tt.kind, tt.markup, tt.align)
			}
		})
	}
}

func TestBlocks_Links(t *testing.T) {
	blocks, _ := blocksOf(t, `<body><p>See <a href="https://example.com" onclick="x()">this</a> and <a href="javascript:alert(1)">that</a></p></body>`)
	markup := blocks[0].(*model.Text).Markup
	if !strings.Contains(markup, `href="https://example.com"`) || !strings.Contains(markup, `target="_blank"`) {
		t.Errorf("link not kept: %s", markup)
	}
	if strings.Contains(markup, "javascript") || strings.Contains(markup, "onclick") {
		t.Errorf("unsafe markup kept: %s", markup)
	}
}

func TestBlocks_CodeAndSeparator(t *testing.T) {
	doc := `<body>
<pre><code class="hljs language-python">def f():
    return 1
</code></pre>
<hr>
<pre>SELECT id FROM users WHERE id = 2</pre>
</body>`
	blocks, _ := blocksOf(t, doc)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	code := blocks[0].(*model.Code)
	if code.Language != "python" || !strings.HasPrefix(code.Content, "def f():") {
		t.Errorf("code = %+v", code)
	}
	if _, ok := blocks[1].(*model.Separator); !ok {
		t.Errorf("block 1 is %T, want separator", blocks[1])
	}
	if got := blocks[2].(*model.Code).Language; got != "sql" {
		t.Errorf("detected language = %q, want sql", got)
	}
	for i, b := range blocks {
		if b.Position() != i {
			t.Errorf("block %d position = %d", i, b.Position())
		}
	}
}

func TestBlocks_Lists(t *testing.T) {
	doc := `<body>
<ul>
  <li>One
    <ol><li>Nested <b>a</b></li><li>Nested b
      <ul><li>Deep</li></ul>
    </li></ol>
  </li>
  <li>Two</li>
</ul>
<ol><li>First</li></ol>
</body>`
	blocks, warnings := blocksOf(t, doc)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	first := blocks[0].(*model.Text)
	if first.Kind != model.TextBulletList {
		t.Errorf("Kind = %s", first.Kind)
	}
	want := "<li>One<ul><li>Nested <strong>a</strong></li><li>Nested b</li><li>--- Deep</li></ul></li><li>Two</li>"
	if first.Markup != want {
		t.Errorf("Markup = %q\nwant     %q", first.Markup, want)
	}
	// Nested ordered items are coerced to the bullet group.
	if len(warnings) == 0 {
		t.Error("expected coercion warnings")
	}
	second := blocks[1].(*model.Text)
	if second.Kind != model.TextNumberedList || second.Markup != "<li>First</li>" || second.Pos != 1 {
		t.Errorf("second list = %+v", second)
	}
}

func TestBlocks_Table(t *testing.T) {
	doc := `<body><table>
<caption>Prices</caption>
<thead><tr><th>Item</th><th>Cost</th></tr></thead>
<tbody>
<tr><td colspan="2">Combined</td></tr>
<tr><td>Tea</td></tr>
</tbody></table></body>`
	blocks, _ := blocksOf(t, doc)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	tbl := blocks[0].(*model.Table)
	want := [][]string{{"Item", "Cost"}, {"Combined", ""}, {"Tea", ""}}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Errorf("Rows = %q, want %q", tbl.Rows, want)
	}
	if tbl.Caption != "Prices" {
		t.Errorf("Caption = %q", tbl.Caption)
	}
}

func TestBlocks_TableColspanClamped(t *testing.T) {
	blocks, _ := blocksOf(t, `<body><table><tr><td colspan="50000000">Wide</td></tr></table></body>`)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if got := blocks[0].(*model.Table).NumColumns(); got != maxColspan {
		t.Errorf("NumColumns = %d, want %d", got, maxColspan)
	}
}

func TestBlocks_Images(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1600, 900)))
	if err := os.WriteFile(filepath.Join(dir, "wide.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	png.Encode(&buf, image.NewGray(image.Rect(0, 0, 300, 200)))
	os.WriteFile(filepath.Join(dir, "small.png"), buf.Bytes(), 0o644)

	doc := `<html><body>
<figure><img src="wide.png" alt="Panorama"><figcaption>The <em>bay</em></figcaption></figure>
<p><img src="small.png" alt="Thumb" style="float: left"></p>
<img src="https://example.com/remote.png">
</body></html>`
	page := filepath.Join(dir, "page.html")
	os.WriteFile(page, []byte(doc), 0o644)

	media := t.TempDir()
	reader, err := OpenWithConfig(page, Config{Logger: quietLogger(), MediaDir: media})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	blocks, warnings, err := reader.Blocks()
	if err != nil {
		t.Fatalf("Blocks failed: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}

	wide := blocks[0].(*model.Image)
	if wide.Caption != "The <em>bay</em>" || wide.AltText != "Panorama" {
		t.Errorf("Caption = %q, AltText = %q", wide.Caption, wide.AltText)
	}
	if wide.Display != model.DisplayWide {
		t.Errorf("Display = %s, want wide", wide.Display)
	}
	if filepath.Dir(wide.SourcePath) != media {
		t.Errorf("SourcePath = %s, want copy in %s", wide.SourcePath, media)
	}

	small := blocks[1].(*model.Image)
	if small.Display != model.DisplayFloat || small.FloatAlignment != model.AlignStart {
		t.Errorf("small image = %s/%q, want float/start", small.Display, small.FloatAlignment)
	}

	if len(warnings) != 1 || warnings[0].Kind != model.WarningResolution || warnings[0].Position != 2 {
		t.Errorf("warnings = %v", warnings)
	}
}
