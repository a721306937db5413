package converter

import (
	"fmt"
	"strings"
)

const defaultIndentUnit = "    "

type listFrame struct {
	ordered bool
	counter int
}

// listState tracks nested list contexts during rendering. Each open
// list pushes a frame; ordered frames carry their own item counter so
// siblings keep numbering after a nested list closes.
type listState struct {
	unit   string
	frames []listFrame
}

func newListState(unit string) *listState {
	if unit == "" {
		unit = defaultIndentUnit
	}
	return &listState{unit: unit}
}

func (s *listState) push(ordered bool) {
	s.frames = append(s.frames, listFrame{ordered: ordered})
}

func (s *listState) pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

func (s *listState) depth() int  { return len(s.frames) }
func (s *listState) inList() bool { return len(s.frames) > 0 }

// itemPrefix returns leading indentation plus the item marker for the
// next item in the innermost list, advancing its counter.
func (s *listState) itemPrefix(todo, checked bool) string {
	depth := s.depth()
	if depth == 0 {
		depth = 1
	}
	indent := strings.Repeat(s.unit, depth-1)
	switch {
	case todo && checked:
		return indent + "- [x] "
	case todo:
		return indent + "- [ ] "
	case len(s.frames) > 0 && s.frames[len(s.frames)-1].ordered:
		s.frames[len(s.frames)-1].counter++
		return indent + fmt.Sprintf("%d. ", s.frames[len(s.frames)-1].counter)
	default:
		return indent + "- "
	}
}

// hangingIndent aligns an item's continuation lines under its content.
func hangingIndent(text, prefix string) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	pad := strings.Repeat(" ", len(prefix))
	return strings.ReplaceAll(text, "\n", "\n"+pad)
}

// indentBlock prefixes every line of text with n indent units. Used
// for non-list block indentation carried over from padded paragraphs.
func (s *listState) indentBlock(text string, n int) string {
	if n <= 0 || text == "" {
		return text
	}
	prefix := strings.Repeat(s.unit, n)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
