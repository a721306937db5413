package converter

import (
	"strings"

	"github.com/quiettype/evernote2obsidian/internal/domain/document"
)

// tableCell is one source cell with its already-rendered inline text.
type tableCell struct {
	text    string
	rowSpan int
	colSpan int
	align   document.Alignment
}

// flattenTable expands row/column spans into a rectangular grid. The
// spanning cell's text lands in its top-left slot, every other slot it
// covers becomes an empty string. Each slot is assigned exactly once;
// spans reaching past the last row are clamped and reported.
func flattenTable(rows [][]tableCell) (grid [][]string, aligns []document.Alignment, clamped bool) {
	nRows := len(rows)
	if nRows == 0 {
		return nil, nil, false
	}

	slots := make([]map[int]string, nRows)
	for i := range slots {
		slots[i] = make(map[int]string)
	}
	alignByCol := make(map[int]document.Alignment)
	nCols := 0

	for r, row := range rows {
		col := 0
		for _, cell := range row {
			for {
				if _, taken := slots[r][col]; !taken {
					break
				}
				col++
			}
			rs, cs := cell.rowSpan, cell.colSpan
			if rs < 1 {
				rs = 1
			}
			if cs < 1 {
				cs = 1
			}
			if rs > nRows-r {
				rs = nRows - r
				clamped = true
			}
			for dr := 0; dr < rs; dr++ {
				for dc := 0; dc < cs; dc++ {
					if _, taken := slots[r+dr][col+dc]; taken {
						clamped = true
						continue
					}
					text := ""
					if dr == 0 && dc == 0 {
						text = cell.text
					}
					slots[r+dr][col+dc] = text
				}
			}
			if cell.align != document.AlignNone {
				if _, declared := alignByCol[col]; !declared {
					alignByCol[col] = cell.align
				}
			}
			col += cs
			if col > nCols {
				nCols = col
			}
		}
	}

	grid = make([][]string, nRows)
	for r := range grid {
		grid[r] = make([]string, nCols)
		for c := 0; c < nCols; c++ {
			grid[r][c] = slots[r][c]
		}
	}
	aligns = make([]document.Alignment, nCols)
	for c := range aligns {
		aligns[c] = alignByCol[c]
	}
	return grid, aligns, clamped
}

// renderTable emits a Markdown pipe table. The first grid row becomes
// the header row, as pipe tables cannot exist without one. Embedded
// newlines become <br> so cells stay on one physical line.
func renderTable(rows [][]tableCell) (string, bool) {
	grid, aligns, clamped := flattenTable(rows)
	if len(grid) == 0 {
		return "", clamped
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(c, "\n", "<br>"))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(grid[0])
	b.WriteString("|")
	for _, a := range aligns {
		switch a {
		case document.AlignLeft:
			b.WriteString(" :-- |")
		case document.AlignCenter:
			b.WriteString(" :-: |")
		case document.AlignRight:
			b.WriteString(" --: |")
		default:
			b.WriteString(" --- |")
		}
	}
	b.WriteString("\n")
	for _, row := range grid[1:] {
		writeRow(row)
	}
	return b.String(), clamped
}
