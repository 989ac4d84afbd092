package docx

import (
	"errors"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/tsawler/docstory/model"
)

var errEmptyTable = errors.New("table has no rows")

// maxGridColumns is Word's column limit, used when a table has no grid.
const maxGridColumns = 63

// buildTable converts a w:tbl into a rectangular table block. Only direct
// rows and cells are read, so nested tables fold into their cell's text.
// Spans never widen a row past the table grid. Cells continuing a
// vertical merge are empty.
func (b *bodyParser) buildTable(tbl *etree.Element, pos int) (*model.Table, error) {
	limit := gridColumns(tbl)
	var rows [][]string
	width := 0
	for _, tr := range tbl.SelectElements("tr") {
		var row []string
		for _, tc := range tr.SelectElements("tc") {
			text := ""
			if !vMergeContinue(tc) {
				text = b.cellText(tc)
			}
			row = append(row, text)
			pad := min(gridSpan(tc)-1, limit-len(row))
			for i := 0; i < pad; i++ {
				row = append(row, "")
			}
		}
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errEmptyTable
	}

	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}

	b.logger.Debug("table built", "position", pos, "rows", len(rows), "columns", width)
	return &model.Table{Rows: rows, Pos: pos}, nil
}

// cellText joins the formatted markup of a cell's non-empty paragraphs
// with newlines.
func (b *bodyParser) cellText(tc *etree.Element) string {
	var parts []string
	for _, p := range tc.FindElements(".//p") {
		f := formatRuns(p, b.r.rels.Hyperlinks)
		if strings.TrimSpace(f.Plain) == "" {
			continue
		}
		parts = append(parts, f.Markup)
	}
	return strings.Join(parts, "\n")
}

// gridColumns returns the column count of the table grid, or
// maxGridColumns when the grid is missing.
func gridColumns(tbl *etree.Element) int {
	if n := len(tbl.FindElements("./tblGrid/gridCol")); n > 0 {
		return n
	}
	return maxGridColumns
}

// vMergeContinue reports whether the cell continues a vertical merge
// started in a row above.
func vMergeContinue(tc *etree.Element) bool {
	m := tc.FindElement("./tcPr/vMerge")
	if m == nil {
		return false
	}
	return m.SelectAttrValue("val", "continue") != "restart"
}

// gridSpan returns the number of grid columns a cell covers.
func gridSpan(tc *etree.Element) int {
	span := tc.FindElement("./tcPr/gridSpan")
	if span == nil {
		return 1
	}
	n, err := strconv.Atoi(span.SelectAttrValue("val", "1"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
