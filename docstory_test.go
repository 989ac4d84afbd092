package docstory

import (
	"archive/zip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/docstory/model"
	"github.com/tsawler/docstory/publish"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeDOCX writes a minimal DOCX whose body is the given WordprocessingML.
func writeDOCX(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="xml" ContentType="application/xml"/>
</Types>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>
<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`,
	}
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		w.Write([]byte(content))
	}
	zw.Close()
	f.Close()
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestOpen_DOCX(t *testing.T) {
	path := writeDOCX(t, `<w:p><w:pPr><w:outlineLvl w:val="0"/></w:pPr><w:r><w:t>Harbour walk</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Start at the pier.</w:t></w:r></w:p>`)

	blocks, warnings, err := Open(path).WithLogger(quietLogger()).MediaDir(t.TempDir()).Blocks()
	if err != nil {
		t.Fatalf("Blocks failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %s", FormatWarnings(warnings))
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	heading, ok := blocks[0].(*model.Text)
	if !ok || heading.Kind != model.TextHeading2 || heading.Markup != "Harbour walk" {
		t.Errorf("block 0 = %#v", blocks[0])
	}
	para, ok := blocks[1].(*model.Text)
	if !ok || para.Kind != model.TextParagraph {
		t.Errorf("block 1 = %#v", blocks[1])
	}
}

func TestOpen_HTML(t *testing.T) {
	path := writeFile(t, "page.html", `<html><body>
<h2>Harbour walk</h2>
<p>Start at the <strong>pier</strong>.</p>
<hr>
<pre><code class="language-python">print("hi")</code></pre>
</body></html>`)

	blocks := MustBlocks(Open(path).WithLogger(quietLogger()).MediaDir(t.TempDir()).Blocks())

	want := []model.BlockType{model.BlockTypeText, model.BlockTypeText, model.BlockTypeSeparator, model.BlockTypeCode}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d", len(blocks), len(want))
	}
	for i, b := range blocks {
		if b.Type() != want[i] {
			t.Errorf("block %d type = %s, want %s", i, b.Type(), want[i])
		}
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{"no filename", ""},
		{"missing file", filepath.Join(t.TempDir(), "missing.docx")},
		{"unsupported", writeFile(t, "notes.txt", "plain words")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Open(tt.filename).WithLogger(quietLogger()).Blocks(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestExtractor_Immutable(t *testing.T) {
	base := Open("doc.docx")
	withDir := base.MediaDir("media").KeepExtracted()

	if base.options.mediaDir != "" || base.options.keepExtracted {
		t.Error("configuring a copy changed the original")
	}
	if withDir.options.mediaDir != "media" || !withDir.options.keepExtracted {
		t.Errorf("options = %+v", withDir.options)
	}
	if base.WithLogger(nil).options.logger == nil {
		t.Error("nil logger replaced the default")
	}
}

func TestFormatWarnings(t *testing.T) {
	warnings := []Warning{
		{Kind: model.WarningStructural, Position: 3, Message: "list type coerced"},
		{Kind: model.WarningResolution, Position: -1, Message: "image missing"},
	}
	want := "structural at element 3: list type coerced\nresolution: image missing"
	if got := FormatWarnings(warnings); got != want {
		t.Errorf("FormatWarnings = %q, want %q", got, want)
	}
	if FormatWarnings(nil) != "" {
		t.Error("no warnings should format as empty")
	}
}

func TestMarkdown(t *testing.T) {
	blocks := []model.Block{
		&model.Text{Kind: model.TextHeading2, Markup: "Harbour walk"},
		&model.Text{Kind: model.TextParagraph, Markup: "Start at the <strong>pier</strong>."},
		&model.Text{Kind: model.TextBulletList, Markup: "<li>Coffee</li><li>Tea</li>"},
		&model.Table{Rows: [][]string{{"Stop", "Time"}, {"Pier", "9:00"}}},
		&model.Code{Content: "print(1)", Language: "py"},
		&model.Separator{},
	}

	md, err := Markdown(blocks)
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}
	for _, want := range []string{"## Harbour walk", "**pier**", "Coffee", "| Stop", "print(1)", "```"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestHTML(t *testing.T) {
	blocks := []model.Block{
		&model.Text{Kind: model.TextQuote, Markup: "Quoted"},
		&model.Image{SourcePath: "media/a b.png", AltText: `say "hi"`, Caption: "Pier"},
		&model.Table{Rows: [][]string{{"A"}, {"line1\nline2"}}, Caption: "Times"},
		&model.Code{Content: "a < b", Language: "js"},
	}
	got := HTML(blocks)
	for _, want := range []string{
		"<blockquote>Quoted</blockquote>",
		`alt="say &#34;hi&#34;"`,
		"<figcaption>Pier</figcaption>",
		"<caption>Times</caption><tr><th>A</th></tr><tr><td>line1<br>line2</td></tr>",
		`<code class="language-js">a &lt; b</code>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("HTML missing %q:\n%s", want, got)
		}
	}
}

// countingPlatform records how many nodes were created.
type countingPlatform struct {
	nodes int
	saved bool
}

func (p *countingPlatform) next() (string, error) {
	p.nodes++
	return "n-" + strings.Repeat("0", 5) + string(rune('0'+p.nodes)), nil
}

func (p *countingPlatform) CreateTextNode(context.Context, string, model.TextKind) (string, error) {
	return p.next()
}
func (p *countingPlatform) CreateImageNode(context.Context, publish.ImageSpec) (string, error) {
	return p.next()
}
func (p *countingPlatform) CreateTableNode(context.Context, int, int, string) (string, error) {
	return p.next()
}
func (p *countingPlatform) CreateSeparatorNode(context.Context) (string, error) { return p.next() }
func (p *countingPlatform) Save(context.Context) error {
	p.saved = true
	return nil
}
func (p *countingPlatform) ItemID() string { return "item1" }
func (p *countingPlatform) FetchResource(context.Context, string) ([]byte, error) {
	return nil, os.ErrNotExist
}
func (p *countingPlatform) FetchItemData(context.Context) ([]byte, error) {
	return []byte(`{"root":"n-000001","nodes":{"n-000001":{"type":"text","data":{"text":"PLACEHOLDER_TEXT_0","type":"paragraph"}}},"resources":{}}`), nil
}
func (p *countingPlatform) ReplaceItemData(context.Context, []byte) error { return nil }
func (p *countingPlatform) ListResources(context.Context) ([]string, error) {
	return nil, nil
}
func (p *countingPlatform) UploadResource(context.Context, string, []byte) error { return nil }

func TestPublishBlocks(t *testing.T) {
	platform := &countingPlatform{}
	blocks := []model.Block{
		&model.Text{Kind: model.TextParagraph, Markup: "Hello"},
		&model.Text{Kind: model.TextParagraph, Markup: "..."},
	}

	report, err := PublishBlocks(context.Background(), platform, blocks, publish.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("PublishBlocks failed: %v", err)
	}
	if !platform.saved {
		t.Error("story was not saved")
	}
	if report.Created != 1 || report.Skipped != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.DraftUpdated {
		t.Error("no draft should have been uploaded")
	}
}

func TestOpen_OCRAltTextWithoutSupport(t *testing.T) {
	path := writeFile(t, "page.html", `<html><body><p>Just words</p></body></html>`)

	ext := Open(path).WithLogger(quietLogger()).MediaDir(t.TempDir()).OCRAltText("eng")
	if !ext.options.ocrAltText || ext.options.ocrLanguage != "eng" {
		t.Fatalf("options = %+v", ext.options)
	}
	blocks, _, err := ext.Blocks()
	if err != nil {
		t.Fatalf("Blocks failed: %v", err)
	}
	if len(blocks) != 1 {
		t.Errorf("got %d blocks, want 1", len(blocks))
	}
}
