package exporter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quiettype/evernote2obsidian/internal/app/converter"
	"github.com/quiettype/evernote2obsidian/internal/domain/evernote"
)

type fakeArchive struct {
	notebooks []evernote.Notebook
	notes     map[string][]evernote.Note
}

func (f *fakeArchive) Notebooks(context.Context) ([]evernote.Notebook, error) {
	return f.notebooks, nil
}

func (f *fakeArchive) NotesByNotebook(_ context.Context, guid string, includeTrash bool) ([]evernote.Note, error) {
	var out []evernote.Note
	for _, n := range f.notes[guid] {
		if n.Active || includeTrash {
			out = append(out, n)
		}
	}
	return out, nil
}

func testArchive() *fakeArchive {
	return &fakeArchive{
		notebooks: []evernote.Notebook{
			{GUID: "nb1", Name: "Work"},
			{GUID: "nb2", Name: "Old", Stack: "Boxes"},
		},
		notes: map[string][]evernote.Note{
			"nb1": {
				{
					GUID: "n1", Title: "First", Active: true,
					Content: `<en-note><div>see <a href="evernote:///view/1/s1/aaaa1111-bbbb-cccc-dddd-eeee2222ffff/x/">the other</a></div></en-note>`,
				},
				{
					GUID: "n2", Title: "With file", Active: true,
					Content: `<en-note><div><en-media hash="ff01" type="image/png"/></div></en-note>`,
					Resources: []evernote.Resource{
						{Mime: "image/png", Data: evernote.ResourceData{
							Size: 4, BodyHash: "ff01", Body: []byte{1, 2, 3, 4}}},
					},
				},
				{GUID: "n3", Title: "Empty", Active: true, Content: "<en-note><div></div></en-note>"},
				{GUID: "n4", Title: "Trashed", Active: false, Content: "<en-note><div>gone</div></en-note>"},
			},
			"nb2": {
				{
					GUID: "aaaa1111-bbbb-cccc-dddd-eeee2222ffff", Title: "The Other", Active: true,
					Content: "<en-note><div>target</div></en-note>",
				},
			},
		},
	}
}

func newTestExporter(t *testing.T) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	return &Exporter{
		DB:        testArchive(),
		OutputDir: dir,
		Jobs:      2,
		Options:   converter.DefaultOptions(),
	}, dir
}

func TestRunExportsNotesAndAttachments(t *testing.T) {
	e, dir := newTestExporter(t)
	stats, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Notes != 3 {
		t.Errorf("notes = %d, want 3", stats.Notes)
	}
	if stats.Attachments != 1 {
		t.Errorf("attachments = %d", stats.Attachments)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Work", "First.md"))
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	if !strings.Contains(string(data), "[[Boxes/Old/The Other|the other]]") {
		t.Errorf("cross-notebook link missing:\n%s", data)
	}

	if _, err := os.Stat(filepath.Join(dir, "Work", "_resources", "ff01.png")); err != nil {
		t.Errorf("attachment not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Boxes", "Old", "The Other.md")); err != nil {
		t.Errorf("stacked notebook note not written: %v", err)
	}
}

func TestRunSkipsEmptyAndTrashedByDefault(t *testing.T) {
	e, dir := newTestExporter(t)
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Work", "Empty.md")); err == nil {
		t.Error("empty note was written")
	}
	if _, err := os.Stat(filepath.Join(dir, "Work", "Trashed.md")); err == nil {
		t.Error("trashed note was written")
	}
}

func TestRunExportTrashAndEmpty(t *testing.T) {
	e, dir := newTestExporter(t)
	e.ExportTrash = true
	e.ExportEmptyNotes = true
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Work", "Empty.md")); err != nil {
		t.Errorf("empty note missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Work", "Trashed.md")); err != nil {
		t.Errorf("trashed note missing: %v", err)
	}
}

func TestRunNotebookSelection(t *testing.T) {
	e, dir := newTestExporter(t)
	e.NotebookGUIDs = []string{"nb2"}
	stats, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Notes != 1 {
		t.Errorf("notes = %d", stats.Notes)
	}
	if _, err := os.Stat(filepath.Join(dir, "Work")); err == nil {
		t.Error("unselected notebook exported")
	}
}

func TestRunUnknownNotebookSelection(t *testing.T) {
	e, _ := newTestExporter(t)
	e.NotebookGUIDs = []string{"missing"}
	if _, err := e.Run(context.Background()); err == nil {
		t.Fatal("expected error for unknown notebook")
	}
}

func TestRunWithoutOverwriteKeepsFiles(t *testing.T) {
	e, dir := newTestExporter(t)
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	marker := filepath.Join(dir, "Work", "First.md")
	if err := os.WriteFile(marker, []byte("edited by hand"), 0o644); err != nil {
		t.Fatalf("edit: %v", err)
	}

	stats, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Skipped == 0 {
		t.Error("expected skipped files on rerun")
	}
	data, _ := os.ReadFile(marker)
	if string(data) != "edited by hand" {
		t.Error("hand edit overwritten")
	}

	e.Overwrite = true
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
	data, _ = os.ReadFile(marker)
	if string(data) == "edited by hand" {
		t.Error("overwrite did not replace the file")
	}
}
