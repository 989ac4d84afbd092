package docstory

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/tsawler/docstory/model"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Markdown renders blocks as Markdown for previewing. Block markup is
// already sanitised HTML, so the blocks are assembled into one HTML page
// and converted.
func Markdown(blocks []model.Block) (string, error) {
	md, err := mdConverter.ConvertString(HTML(blocks))
	if err != nil {
		return "", fmt.Errorf("converting to markdown: %w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}

// HTML renders blocks as an HTML fragment.
func HTML(blocks []model.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		switch v := b.(type) {
		case *model.Text:
			writeText(&sb, v)
		case *model.Image:
			sb.WriteString("<figure>")
			fmt.Fprintf(&sb, `<img src="%s" alt="%s">`, html.EscapeString(filepath.ToSlash(v.SourcePath)), html.EscapeString(v.AltText))
			if v.Caption != "" {
				fmt.Fprintf(&sb, "<figcaption>%s</figcaption>", v.Caption)
			}
			sb.WriteString("</figure>\n")
		case *model.Table:
			writeTable(&sb, v)
		case *model.Code:
			fmt.Fprintf(&sb, "<pre><code class=\"language-%s\">%s</code></pre>\n", html.EscapeString(v.Language), html.EscapeString(v.Content))
		case *model.Separator:
			sb.WriteString("<hr>\n")
		}
	}
	return sb.String()
}

func writeText(sb *strings.Builder, t *model.Text) {
	tag := "p"
	switch t.Kind {
	case model.TextHeading2, model.TextHeading3, model.TextHeading4:
		tag = string(t.Kind)
	case model.TextQuote:
		tag = "blockquote"
	case model.TextBulletList:
		tag = "ul"
	case model.TextNumberedList:
		tag = "ol"
	}
	fmt.Fprintf(sb, "<%s>%s</%s>\n", tag, t.Markup, tag)
}

// writeTable uses the first row as the header row.
func writeTable(sb *strings.Builder, t *model.Table) {
	sb.WriteString("<table>")
	if t.Caption != "" {
		fmt.Fprintf(sb, "<caption>%s</caption>", t.Caption)
	}
	for i, row := range t.Rows {
		cell := "td"
		if i == 0 {
			cell = "th"
		}
		sb.WriteString("<tr>")
		for _, c := range row {
			fmt.Fprintf(sb, "<%s>%s</%s>", cell, strings.ReplaceAll(c, "\n", "<br>"), cell)
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>\n")
}
