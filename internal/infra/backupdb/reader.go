// Package backupdb reads the SQLite archive produced by an
// evernote-backup sync. The reader never writes; the archive stays a
// faithful source across repeated exports.
//
// Row payloads are JSON documents, stored raw or zlib-deflated. The
// two are told apart by the zlib header byte.
package backupdb

import (
	"bytes"
	"compress/zlib"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	_ "modernc.org/sqlite"

	"github.com/quiettype/evernote2obsidian/internal/domain/evernote"
)

type DB struct {
	sql      *sql.DB
	hasTasks bool
}

// Open opens an archive read-only and verifies it looks like one.
func Open(ctx context.Context, path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	d := &DB{sql: sqlDB}

	ok, err := d.hasTable(ctx, "notebooks")
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("inspect archive %s: %w", path, err)
	}
	if !ok {
		sqlDB.Close()
		return nil, fmt.Errorf("%s is not an evernote-backup archive", path)
	}
	// task support arrived late in the archive format
	if d.hasTasks, err = d.hasTable(ctx, "tasks"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("inspect archive %s: %w", path, err)
	}
	return d, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) hasTable(ctx context.Context, name string) (bool, error) {
	var n int
	err := d.sql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	return n > 0, err
}

// Notebooks lists every notebook, stacks first so export folders come
// out in display order.
func (d *DB) Notebooks(ctx context.Context) ([]evernote.Notebook, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT guid, name, COALESCE(stack, '') FROM notebooks
		 ORDER BY stack, name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	defer rows.Close()

	var out []evernote.Notebook
	for rows.Next() {
		var nb evernote.Notebook
		if err := rows.Scan(&nb.GUID, &nb.Name, &nb.Stack); err != nil {
			return nil, fmt.Errorf("scan notebook: %w", err)
		}
		out = append(out, nb)
	}
	return out, rows.Err()
}

// NoteCounts returns the number of active notes per notebook, for the
// notebook picker.
func (d *DB) NoteCounts(ctx context.Context) (map[string]int, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT notebook_guid, COUNT(*) FROM notes WHERE is_active = 1 GROUP BY notebook_guid`)
	if err != nil {
		return nil, fmt.Errorf("count notes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var guid string
		var n int
		if err := rows.Scan(&guid, &n); err != nil {
			return nil, fmt.Errorf("scan note count: %w", err)
		}
		out[guid] = n
	}
	return out, rows.Err()
}

// NotesByNotebook decodes every note of one notebook in title order.
// Trashed notes are skipped unless includeTrash is set.
func (d *DB) NotesByNotebook(ctx context.Context, notebookGUID string, includeTrash bool) ([]evernote.Note, error) {
	query := `SELECT raw_note FROM notes WHERE notebook_guid = ?`
	if !includeTrash {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY title COLLATE NOCASE`

	rows, err := d.sql.QueryContext(ctx, query, notebookGUID)
	if err != nil {
		return nil, fmt.Errorf("list notes of %s: %w", notebookGUID, err)
	}
	defer rows.Close()

	var out []evernote.Note
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		var note evernote.Note
		if err := decodePayload(raw, &note); err != nil {
			return nil, fmt.Errorf("decode note in %s: %w", notebookGUID, err)
		}
		out = append(out, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if d.hasTasks {
		for i := range out {
			if out[i].Tasks, err = d.tasksForNote(ctx, out[i].GUID); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (d *DB) tasksForNote(ctx context.Context, noteGUID string) ([]evernote.Task, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT raw_task FROM tasks WHERE note_guid = ?`, noteGUID)
	if err != nil {
		return nil, fmt.Errorf("list tasks of note %s: %w", noteGUID, err)
	}
	defer rows.Close()

	var tasks []evernote.Task
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		var t evernote.Task
		if err := decodePayload(raw, &t); err != nil {
			return nil, fmt.Errorf("decode task of note %s: %w", noteGUID, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		if tasks[i].Reminders, err = d.remindersForTask(ctx, tasks[i].GUID); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (d *DB) remindersForTask(ctx context.Context, taskGUID string) ([]evernote.Reminder, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT raw_reminder FROM reminders WHERE task_guid = ?`, taskGUID)
	if err != nil {
		return nil, fmt.Errorf("list reminders of task %s: %w", taskGUID, err)
	}
	defer rows.Close()

	var out []evernote.Reminder
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		var r evernote.Reminder
		if err := decodePayload(raw, &r); err != nil {
			return nil, fmt.Errorf("decode reminder of task %s: %w", taskGUID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func decodePayload(raw []byte, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty payload")
	}
	if raw[0] == 0x78 {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("open deflated payload: %w", err)
		}
		defer zr.Close()
		inflated, err := io.ReadAll(zr)
		if err != nil {
			return fmt.Errorf("inflate payload: %w", err)
		}
		raw = inflated
	}
	return json.Unmarshal(raw, v)
}
