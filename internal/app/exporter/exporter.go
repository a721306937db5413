// Package exporter drives a full archive-to-vault export: one indexing
// pass over every selected notebook, then concurrent conversion and
// writing against the finished index.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quiettype/evernote2obsidian/internal/app/converter"
	"github.com/quiettype/evernote2obsidian/internal/domain/evernote"
	"github.com/quiettype/evernote2obsidian/internal/infra/vaultfs"
)

// Archive is the slice of the backup reader the exporter needs.
type Archive interface {
	Notebooks(ctx context.Context) ([]evernote.Notebook, error)
	NotesByNotebook(ctx context.Context, notebookGUID string, includeTrash bool) ([]evernote.Note, error)
}

type Exporter struct {
	DB        Archive
	OutputDir string

	// NotebookGUIDs limits the export; empty means every notebook.
	NotebookGUIDs []string

	Overwrite        bool
	ExportTrash      bool
	ExportEmptyNotes bool
	PreserveTimes    bool
	Jobs             int

	Options converter.Options
	Log     *slog.Logger
}

type Stats struct {
	Notes       int
	Attachments int
	Skipped     int
	Issues      int
}

func (e *Exporter) Run(ctx context.Context) (Stats, error) {
	if e.Log == nil {
		e.Log = slog.Default()
	}
	jobs := e.Jobs
	if jobs < 1 {
		jobs = 4
	}

	notebooks, err := e.selectedNotebooks(ctx)
	if err != nil {
		return Stats{}, err
	}
	if len(notebooks) == 0 {
		return Stats{}, errors.New("no notebooks selected")
	}

	// Pass 1: reserve every note and attachment path so links between
	// notes resolve no matter which worker converts first.
	index := converter.NewLinkIndex(e.Options.LinksWithFolders)
	batches := make([][]evernote.Note, len(notebooks))
	total := 0
	for i, nb := range notebooks {
		notes, err := e.DB.NotesByNotebook(ctx, nb.GUID, e.ExportTrash)
		if err != nil {
			return Stats{}, err
		}
		folder := converter.NotebookFolder(nb)
		kept := notes[:0]
		for j := range notes {
			if !e.ExportEmptyNotes && isEmptyNote(&notes[j]) {
				e.Log.Debug("skipping empty note", "title", notes[j].Title, "notebook", nb.Name)
				continue
			}
			index.AddNote(folder, &notes[j])
			kept = append(kept, notes[j])
		}
		batches[i] = kept
		total += len(kept)
	}

	// Pass 2: convert and write concurrently.
	conv := converter.New(e.Options, index)
	vault := vaultfs.New(e.OutputDir)
	bar := newExportProgressBar(total)
	defer bar.Close()

	var mu sync.Mutex
	var stats Stats

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range batches {
		nb := notebooks[i]
		for j := range batches[i] {
			note := &batches[i][j]
			g.Go(func() error {
				err := e.exportNote(ctx, conv, vault, index, note, &mu, &stats)
				mu.Lock()
				bar.Advance("exporting " + nb.Name)
				mu.Unlock()
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	bar.Finish("done")
	return stats, nil
}

func (e *Exporter) exportNote(ctx context.Context, conv *converter.Converter, vault *vaultfs.Vault,
	index *converter.LinkIndex, note *evernote.Note, mu *sync.Mutex, stats *Stats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := conv.ConvertNote(note)
	if err != nil {
		var pe *converter.ParseError
		if errors.As(err, &pe) {
			e.Log.Warn("note skipped", "title", note.Title, "reason", pe.Reason)
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			return nil
		}
		return err
	}

	written, err := vault.WriteNote(res.Path, []byte(res.Markdown), e.Overwrite)
	if err != nil {
		return err
	}
	if written && e.PreserveTimes {
		created := evernote.TimeFromMillis(note.Created)
		updated := evernote.TimeFromMillis(note.Updated)
		if err := vault.ApplyTimes(res.Path, created, updated, setFileCreationTime); err != nil {
			e.Log.Warn("cannot set file times", "path", res.Path, "error", err)
		}
	}

	attachments := 0
	for _, r := range note.Resources {
		p, ok := index.ResourcePath(note.GUID, r.Data.BodyHash)
		if !ok {
			continue
		}
		if len(r.Data.Body) == 0 {
			e.Log.Warn("attachment has no body", "note", note.Title, "path", p)
			continue
		}
		resWritten, err := vault.WriteResource(p, r.Data.Body, e.Overwrite)
		if err != nil {
			return err
		}
		if resWritten {
			attachments++
		}
	}

	for _, issue := range res.Issues {
		e.Log.Warn("conversion issue", "title", note.Title, "issue", issue.String())
	}

	mu.Lock()
	if written {
		stats.Notes++
	} else {
		stats.Skipped++
	}
	stats.Attachments += attachments
	stats.Issues += len(res.Issues)
	mu.Unlock()
	return nil
}

func (e *Exporter) selectedNotebooks(ctx context.Context) ([]evernote.Notebook, error) {
	all, err := e.DB.Notebooks(ctx)
	if err != nil {
		return nil, err
	}
	if len(e.NotebookGUIDs) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(e.NotebookGUIDs))
	for _, g := range e.NotebookGUIDs {
		want[g] = true
	}
	var out []evernote.Notebook
	for _, nb := range all {
		if want[nb.GUID] {
			out = append(out, nb)
		}
	}
	if len(out) != len(want) {
		return nil, fmt.Errorf("%d selected notebooks not found in the archive", len(want)-len(out))
	}
	return out, nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// isEmptyNote reports whether a note has neither visible text nor
// attachments.
func isEmptyNote(note *evernote.Note) bool {
	if len(note.Resources) > 0 {
		return false
	}
	return strings.TrimSpace(tagRe.ReplaceAllString(note.Content, "")) == ""
}
