// Package converter turns ENML note documents into Obsidian Markdown.
// Conversion runs in two passes: a LinkIndex built over every selected
// note first, then per-note conversion against that index so links
// between notes land on their final vault paths.
package converter

import (
	"fmt"

	"github.com/quiettype/evernote2obsidian/internal/domain/evernote"
)

// Converter converts notes against a fully built index. Safe for
// concurrent use; all per-note state lives in the renderer.
type Converter struct {
	opts  Options
	index *LinkIndex
}

func New(opts Options, index *LinkIndex) *Converter {
	return &Converter{opts: opts, index: index}
}

// Result is one converted note ready to be written.
type Result struct {
	Path     string // vault-relative path reserved in the index
	Markdown string // frontmatter plus body
	Issues   []Issue
}

// ConvertNote converts a single note. The note must have been added to
// the index beforehand; conversion fails only when the content cannot
// be parsed at all.
func (c *Converter) ConvertNote(note *evernote.Note) (*Result, error) {
	p, ok := c.index.NotePath(note.GUID)
	if !ok {
		return nil, fmt.Errorf("note %s (%q) is not in the link index", note.GUID, note.Title)
	}

	doc, err := ParseContent(note.GUID, note.Content)
	if err != nil {
		return nil, err
	}

	issues := &issueList{noteGUID: note.GUID}
	body := newRenderer(note, c.index, c.opts, issues).Body(doc)

	fm, err := Frontmatter(note, c.opts)
	if err != nil {
		return nil, err
	}

	content := fm
	if c.opts.FirstLineEmpty && fm != "" {
		content += "\n"
	}
	content += body

	return &Result{
		Path:     p,
		Markdown: content,
		Issues:   issues.collapsed(),
	}, nil
}
