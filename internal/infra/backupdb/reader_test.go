package backupdb

import (
	"bytes"
	"compress/zlib"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
)

func makeArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup.db")
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE notebooks (guid TEXT PRIMARY KEY, name TEXT, stack TEXT)`,
		`CREATE TABLE notes (guid TEXT PRIMARY KEY, title TEXT, notebook_guid TEXT,
			is_active INTEGER, raw_note BLOB)`,
		`CREATE TABLE tasks (guid TEXT PRIMARY KEY, note_guid TEXT, raw_task BLOB)`,
		`CREATE TABLE reminders (guid TEXT PRIMARY KEY, task_guid TEXT, raw_reminder BLOB)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	exec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	exec(`INSERT INTO notebooks VALUES ('nb1', 'Recipes', NULL)`)
	exec(`INSERT INTO notebooks VALUES ('nb2', 'Archive', 'Old')`)

	note := map[string]any{
		"guid": "n1", "title": "Soup",
		"content": "<en-note><div>stir</div></en-note>",
		"active":  true,
	}
	exec(`INSERT INTO notes VALUES ('n1', 'Soup', 'nb1', 1, ?)`, mustJSON(t, note))

	deleted := map[string]any{"guid": "n2", "title": "Old soup", "active": false}
	exec(`INSERT INTO notes VALUES ('n2', 'Old soup', 'nb1', 0, ?)`, deflate(t, mustJSON(t, deleted)))

	task := map[string]any{"guid": "t1", "label": "Buy leeks", "status": "open",
		"taskGroupNoteLevelID": "grp1"}
	exec(`INSERT INTO tasks VALUES ('t1', 'n1', ?)`, mustJSON(t, task))

	rem := map[string]any{"guid": "r1", "status": "active"}
	exec(`INSERT INTO reminders VALUES ('r1', 't1', ?)`, mustJSON(t, rem))

	return path
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func deflate(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		t.Fatalf("deflate: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("deflate close: %v", err)
	}
	return buf.Bytes()
}

func TestOpenRejectsNonArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE unrelated (x INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	db.Close()

	if _, err := Open(context.Background(), path); err == nil {
		t.Fatal("expected error for a non-archive database")
	}
}

func TestNotebooks(t *testing.T) {
	d, err := Open(context.Background(), makeArchive(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	nbs, err := d.Notebooks(context.Background())
	if err != nil {
		t.Fatalf("Notebooks: %v", err)
	}
	if len(nbs) != 2 {
		t.Fatalf("notebooks = %v", nbs)
	}
	if nbs[0].Name != "Recipes" || nbs[0].Stack != "" {
		t.Errorf("first = %+v", nbs[0])
	}
	if nbs[1].Name != "Archive" || nbs[1].Stack != "Old" {
		t.Errorf("second = %+v", nbs[1])
	}
}

func TestNoteCounts(t *testing.T) {
	d, err := Open(context.Background(), makeArchive(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	counts, err := d.NoteCounts(context.Background())
	if err != nil {
		t.Fatalf("NoteCounts: %v", err)
	}
	if counts["nb1"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestNotesByNotebook(t *testing.T) {
	d, err := Open(context.Background(), makeArchive(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	notes, err := d.NotesByNotebook(context.Background(), "nb1", false)
	if err != nil {
		t.Fatalf("NotesByNotebook: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notes = %v", notes)
	}
	n := notes[0]
	if n.Title != "Soup" || n.Content == "" {
		t.Errorf("note = %+v", n)
	}
	if len(n.Tasks) != 1 || n.Tasks[0].Label != "Buy leeks" {
		t.Fatalf("tasks = %+v", n.Tasks)
	}
	if len(n.Tasks[0].Reminders) != 1 || !n.Tasks[0].Reminders[0].Active() {
		t.Errorf("reminders = %+v", n.Tasks[0].Reminders)
	}
}

func TestNotesByNotebookIncludesTrash(t *testing.T) {
	d, err := Open(context.Background(), makeArchive(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	notes, err := d.NotesByNotebook(context.Background(), "nb1", true)
	if err != nil {
		t.Fatalf("NotesByNotebook: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("notes = %d, want active plus trashed", len(notes))
	}
	var sawDeflated bool
	for _, n := range notes {
		if n.GUID == "n2" && !n.Active {
			sawDeflated = true
		}
	}
	if !sawDeflated {
		t.Error("deflated trashed note not decoded")
	}
}
