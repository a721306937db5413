package converter

import (
	"path"
	"strings"

	"github.com/quiettype/evernote2obsidian/internal/domain/evernote"
	"github.com/quiettype/evernote2obsidian/internal/infra/vaultfs"
)

// LinkIndex maps note GUIDs to their final vault paths. It is filled in
// a first pass over every selected notebook so that links between notes
// resolve regardless of conversion order, then read concurrently during
// the second pass.
type LinkIndex struct {
	linksWithFolders bool

	notePath map[string]string            // note GUID -> vault path with .md
	resPath  map[string]map[string]string // note GUID -> body hash -> vault path
	titles   map[string][]string          // lowercased title -> note GUIDs
	used     map[string]bool
}

func NewLinkIndex(linksWithFolders bool) *LinkIndex {
	return &LinkIndex{
		linksWithFolders: linksWithFolders,
		notePath:         make(map[string]string),
		resPath:          make(map[string]map[string]string),
		titles:           make(map[string][]string),
		used:             make(map[string]bool),
	}
}

// NotebookFolder is the vault folder for a notebook, nesting stacked
// notebooks under their stack.
func NotebookFolder(nb evernote.Notebook) string {
	name := vaultfs.SafeName(nb.Name)
	if nb.Stack != "" {
		return path.Join(vaultfs.SafeName(nb.Stack), name)
	}
	return name
}

// titleKey folds case and runs of whitespace so titles that collapse
// to the same file stem register as one.
func titleKey(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// AddNote reserves the note's file path and its attachments' paths.
// Callers must add notes in a stable order; names are first come first
// served, later duplicates get a numbered suffix.
func (x *LinkIndex) AddNote(folder string, note *evernote.Note) string {
	base := vaultfs.SafeName(note.Title)
	name := vaultfs.UniqueName(x.used, folder, base, ".md")
	p := path.Join(folder, name)
	x.notePath[note.GUID] = p

	key := titleKey(note.Title)
	x.titles[key] = append(x.titles[key], note.GUID)

	if len(note.Resources) > 0 {
		resDir := path.Join(folder, vaultfs.ResourceDir)
		byHash := make(map[string]string, len(note.Resources))
		for _, res := range note.Resources {
			fname := vaultfs.ResourceFileName(res.Attributes.FileName, res.Mime, res.Data.BodyHash)
			ext := path.Ext(fname)
			stem := strings.TrimSuffix(fname, ext)
			unique := vaultfs.UniqueName(x.used, resDir, stem, ext)
			byHash[strings.ToLower(res.Data.BodyHash)] = path.Join(resDir, unique)
		}
		x.resPath[note.GUID] = byHash
	}
	return p
}

// NotePath returns the vault path reserved for a note.
func (x *LinkIndex) NotePath(guid string) (string, bool) {
	p, ok := x.notePath[guid]
	return p, ok
}

// ResourcePath returns the vault path reserved for the attachment a
// note references by content hash.
func (x *LinkIndex) ResourcePath(noteGUID, hash string) (string, bool) {
	p, ok := x.resPath[noteGUID][strings.ToLower(hash)]
	return p, ok
}

// Resolve turns an internal href into a wikilink target, including the
// block anchor when the source link carried one. ok is false when the
// href is external or the target note is not part of the export.
func (x *LinkIndex) Resolve(href string) (string, bool) {
	ref, ok := evernote.ParseNoteLink(href)
	if !ok {
		return "", false
	}
	p, ok := x.notePath[ref.GUID]
	if !ok {
		return "", false
	}
	target := strings.TrimSuffix(p, ".md")
	if !x.linksWithFolders {
		target = path.Base(target)
	}
	if ref.Block != "" {
		target += "#^" + ref.Block
	}
	return target, true
}

// TitleCollisions lists titles shared by more than one exported note,
// mapped to the colliding GUIDs.
func (x *LinkIndex) TitleCollisions() map[string][]string {
	out := make(map[string][]string)
	for title, guids := range x.titles {
		if len(guids) > 1 {
			out[title] = guids
		}
	}
	return out
}
