package converter

import (
	"fmt"
	"sort"
)

// Category classifies a conversion finding. No category is fatal to the
// run; ParseError alone fails the individual note.
type Category string

const (
	CategoryParse          Category = "parse-error"
	CategoryUnresolvedLink Category = "unresolved-link"
	CategoryTitleCollision Category = "title-collision"
	CategorySpanOverflow   Category = "span-overflow"
	CategoryUnsupported    Category = "unsupported-feature"
)

// Issue is one finding attached to a note.
type Issue struct {
	NoteGUID string
	Category Category
	Detail   string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Category, i.Detail)
}

// ParseError marks a note whose markup could not be built into any tree.
// The note is skipped and reported; the run continues.
type ParseError struct {
	GUID   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse note %s: %s", e.GUID, e.Reason)
}

// issueList accumulates findings during one note's conversion.
type issueList struct {
	noteGUID string
	items    []Issue
}

func (l *issueList) add(cat Category, format string, args ...any) {
	l.items = append(l.items, Issue{
		NoteGUID: l.noteGUID,
		Category: cat,
		Detail:   fmt.Sprintf(format, args...),
	})
}

// collapsed returns the findings with duplicate details folded into one
// entry carrying an [Nx] count, most frequent first.
func (l *issueList) collapsed() []Issue {
	counts := map[Issue]int{}
	for _, it := range l.items {
		counts[it]++
	}
	unique := make([]Issue, 0, len(counts))
	for it := range counts {
		unique = append(unique, it)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return unique[i].Detail < unique[j].Detail
	})
	out := make([]Issue, 0, len(unique))
	for _, it := range unique {
		if n := counts[it]; n > 1 {
			it.Detail = fmt.Sprintf("%s [%dx]", it.Detail, n)
		}
		out = append(out, it)
	}
	return out
}
