package converter

import (
	"strings"

	"github.com/quiettype/evernote2obsidian/internal/domain/document"
	"github.com/quiettype/evernote2obsidian/internal/domain/evernote"
	"github.com/quiettype/evernote2obsidian/internal/infra/vaultfs"
)

// ScanLimits are the thresholds the scanner warns about.
type ScanLimits struct {
	MaxPathLen      int
	MaxAttachmentMB int
	CheckEmojis     bool
}

func DefaultScanLimits() ScanLimits {
	return ScanLimits{MaxPathLen: 250, MaxAttachmentMB: 50, CheckEmojis: true}
}

// Scanner inspects an archive for everything that will not survive
// conversion cleanly, without writing a single file. Feed it every
// selected note GUID first so link targets can be verified.
type Scanner struct {
	limits ScanLimits
	known  map[string]bool
	titles map[string][]string
}

func NewScanner(limits ScanLimits) *Scanner {
	return &Scanner{
		limits: limits,
		known:  make(map[string]bool),
		titles: make(map[string][]string),
	}
}

// AddKnownNote registers a note that will be part of the export.
func (s *Scanner) AddKnownNote(guid string) { s.known[guid] = true }

// ScanNote returns every finding for one note. folder is the vault
// folder the note would land in, used for the path length check.
func (s *Scanner) ScanNote(folder string, note *evernote.Note) []Issue {
	issues := &issueList{noteGUID: note.GUID}

	if bad := vaultfs.InvalidTitleChars(note.Title); bad != "" {
		issues.add(CategoryTitleCollision, "title contains characters unusable in file names: %q", bad)
	}
	if s.limits.CheckEmojis && hasEmoji(note.Title) {
		issues.add(CategoryTitleCollision, "title contains emoji, fragile on some sync setups")
	}
	key := titleKey(note.Title)
	s.titles[key] = append(s.titles[key], note.GUID)

	if s.limits.MaxPathLen > 0 {
		p := folder + "/" + vaultfs.SafeName(note.Title) + ".md"
		if len(p) > s.limits.MaxPathLen {
			issues.add(CategoryTitleCollision, "path is %d characters, over the %d limit", len(p), s.limits.MaxPathLen)
		}
	}

	s.scanResources(note, issues)

	doc, err := ParseContent(note.GUID, note.Content)
	if err != nil {
		issues.add(CategoryParse, "content cannot be parsed: %v", err)
		return issues.collapsed()
	}
	if len(doc.Children) == 0 && len(note.Resources) == 0 {
		issues.add(CategoryUnsupported, "note is empty")
	}
	s.scanTree(doc, issues)

	return issues.collapsed()
}

func (s *Scanner) scanResources(note *evernote.Note, issues *issueList) {
	seen := make(map[string]bool)
	for _, res := range note.Resources {
		name := vaultfs.ResourceFileName(res.Attributes.FileName, res.Mime, res.Data.BodyHash)
		lower := strings.ToLower(name)
		if seen[lower] {
			issues.add(CategoryTitleCollision, "duplicate attachment name %q, one will be renamed", name)
		}
		seen[lower] = true
		if res.Data.Size == 0 {
			issues.add(CategoryUnsupported, "attachment %q is empty", name)
		}
		if s.limits.MaxAttachmentMB > 0 && res.Data.Size > s.limits.MaxAttachmentMB*1024*1024 {
			issues.add(CategoryUnsupported, "attachment %q is %d MB, over the %d MB limit",
				name, res.Data.Size/(1024*1024), s.limits.MaxAttachmentMB)
		}
	}
}

func (s *Scanner) scanTree(doc *document.Node, issues *issueList) {
	document.Walk(doc, func(n *document.Node) bool {
		switch n.Kind {
		case document.KindCell:
			if n.Cell != nil && (n.Cell.RowSpan > 1 || n.Cell.ColSpan > 1) {
				issues.add(CategorySpanOverflow, "table contains merged cells, layout will flatten")
			}
		case document.KindRaw:
			if strings.Contains(n.Text, "<table") {
				issues.add(CategoryUnsupported, "nested table kept as raw HTML")
			} else {
				issues.add(CategoryUnsupported, "layout block kept as raw HTML")
			}
		case document.KindTOC:
			issues.add(CategoryUnsupported, "table of contents block will be dropped")
		case document.KindLink:
			if ref, ok := evernote.ParseNoteLink(n.Link.Href); ok && !s.known[ref.GUID] {
				issues.add(CategoryUnresolvedLink, "links to note %s outside the selection", ref.GUID)
			}
		}
		return true
	})
}

// TitleCollisions lists titles carried by more than one scanned note.
func (s *Scanner) TitleCollisions() map[string][]string {
	out := make(map[string][]string)
	for title, guids := range s.titles {
		if len(guids) > 1 {
			out[title] = guids
		}
	}
	return out
}

func hasEmoji(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF,
			r >= 0x2600 && r <= 0x27BF,
			r >= 0x1F1E6 && r <= 0x1F1FF,
			r == 0xFE0F:
			return true
		}
	}
	return false
}
