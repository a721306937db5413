package evernote

import (
	"regexp"
	"strings"
)

// Evernote produces three different href shapes for links between notes:
// in-app links that carry user/shard segments and may end with a content
// block anchor, legacy web links on www.evernote.com with a shard token,
// and canonical share links. All of them embed the target note GUID.
var (
	appLinkRe   = regexp.MustCompile(`^evernote:///view/[^/]+/[^/]+/([0-9a-f-]+)/`)
	shardLinkRe = regexp.MustCompile(`^https://www\.evernote\.com/[^/]+/[^/]+/[^/]+/[^/]+/([0-9a-f-]+)`)
	shareLinkRe = regexp.MustCompile(`^https://share\.evernote\.com/note/([^/?#]+)`)
)

// NoteLink is a normalized internal link reference.
type NoteLink struct {
	GUID  string
	Block string // optional content-block anchor GUID
}

// ParseNoteLink normalizes an href into a note reference. ok is false for
// external links and anything else that does not embed a note GUID.
func ParseNoteLink(href string) (NoteLink, bool) {
	for _, re := range []*regexp.Regexp{appLinkRe, shardLinkRe, shareLinkRe} {
		m := re.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		// Every capture class above excludes '#', so a content-block
		// anchor always trails the matched part of the href.
		var block string
		if i := strings.IndexByte(href, '#'); i >= 0 {
			block = href[i+1:]
		}
		return NoteLink{GUID: m[1], Block: block}, true
	}
	return NoteLink{}, false
}

// IsNoteLink reports whether href points at another note rather than the
// open web.
func IsNoteLink(href string) bool {
	_, ok := ParseNoteLink(href)
	return ok
}
