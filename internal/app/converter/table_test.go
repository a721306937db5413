package converter

import (
	"strings"
	"testing"

	"github.com/quiettype/evernote2obsidian/internal/domain/document"
)

func cell(text string) tableCell { return tableCell{text: text} }

func TestFlattenTableSimple(t *testing.T) {
	grid, aligns, clamped := flattenTable([][]tableCell{
		{cell("a"), cell("b")},
		{cell("c"), cell("d")},
	})
	if clamped {
		t.Error("unexpected clamp")
	}
	if len(grid) != 2 || len(grid[0]) != 2 {
		t.Fatalf("grid shape %dx%d", len(grid), len(grid[0]))
	}
	if grid[0][0] != "a" || grid[0][1] != "b" || grid[1][0] != "c" || grid[1][1] != "d" {
		t.Errorf("grid = %v", grid)
	}
	if len(aligns) != 2 {
		t.Errorf("aligns = %v", aligns)
	}
}

func TestFlattenTableColSpan(t *testing.T) {
	grid, _, clamped := flattenTable([][]tableCell{
		{{text: "A1", colSpan: 2}},
		{cell("B1"), cell("B2")},
	})
	if clamped {
		t.Error("unexpected clamp")
	}
	if grid[0][0] != "A1" || grid[0][1] != "" {
		t.Errorf("row 0 = %v", grid[0])
	}
	if grid[1][0] != "B1" || grid[1][1] != "B2" {
		t.Errorf("row 1 = %v", grid[1])
	}
}

func TestFlattenTableRowSpan(t *testing.T) {
	grid, _, _ := flattenTable([][]tableCell{
		{{text: "tall", rowSpan: 2}, cell("r1")},
		{cell("r2")},
	})
	if grid[0][0] != "tall" || grid[0][1] != "r1" {
		t.Errorf("row 0 = %v", grid[0])
	}
	// the slot under the spanning cell is empty, r2 shifts right
	if grid[1][0] != "" || grid[1][1] != "r2" {
		t.Errorf("row 1 = %v", grid[1])
	}
}

func TestFlattenTableClampsOverlongSpan(t *testing.T) {
	grid, _, clamped := flattenTable([][]tableCell{
		{{text: "x", rowSpan: 5}},
		{cell("y")},
	})
	if !clamped {
		t.Error("expected clamp flag")
	}
	if len(grid) != 2 {
		t.Fatalf("grid rows = %d", len(grid))
	}
}

func TestFlattenTableFirstAlignmentWins(t *testing.T) {
	_, aligns, _ := flattenTable([][]tableCell{
		{{text: "a", align: document.AlignCenter}},
		{{text: "b", align: document.AlignRight}},
	})
	if aligns[0] != document.AlignCenter {
		t.Errorf("align = %v, want center", aligns[0])
	}
}

func TestRenderTable(t *testing.T) {
	out, _ := renderTable([][]tableCell{
		{{text: "h1", align: document.AlignCenter}, cell("h2")},
		{cell("a\nb"), cell("c")},
	})
	want := "| h1 | h2 |\n| :-: | --- |\n| a<br>b | c |\n"
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestRenderTableEmpty(t *testing.T) {
	out, clamped := renderTable(nil)
	if out != "" || clamped {
		t.Errorf("got %q, %v", out, clamped)
	}
}

func TestRenderTableRaggedRowsPadded(t *testing.T) {
	out, _ := renderTable([][]tableCell{
		{cell("a"), cell("b"), cell("c")},
		{cell("d")},
	})
	if !strings.Contains(out, "| d |  |  |") {
		t.Errorf("short row not padded:\n%s", out)
	}
}
