// Package document holds the normalized tree a note's ENML markup is
// parsed into. The tree is built once per note and never mutated during
// rendering.
package document

// Kind discriminates the node variants.
type Kind int

const (
	KindDocument Kind = iota
	KindParagraph
	KindText
	KindSpan
	KindLink
	KindImage
	KindMedia
	KindTodo
	KindList
	KindItem
	KindTable
	KindRow
	KindCell
	KindQuote
	KindCodeBlock
	KindCodeSpan
	KindHeading
	KindDivider
	KindLineBreak
	KindTaskGroup
	KindTOC
	KindRaw
)

// Style is an independent formatting capability. Styles combine freely,
// which is why they are flags rather than a hierarchy: the emitter picks
// Markdown or HTML per combination.
type Style uint16

const (
	StyleBold Style = 1 << iota
	StyleItalic
	StyleUnderline
	StyleStrike
	StyleSuperscript
	StyleSubscript
)

func (s Style) Has(f Style) bool { return s&f != 0 }

// Alignment of a block or table cell.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Node is one vertex of the document tree. Kind selects which of the
// attribute fields are meaningful; unused fields stay zero.
type Node struct {
	Kind     Kind
	Children []*Node

	// KindText, KindCodeBlock (literal), KindRaw (original markup).
	Text string

	Span  *SpanAttrs  // KindSpan
	Link  *LinkAttrs  // KindLink
	Image *ImageAttrs // KindImage
	Media *MediaAttrs // KindMedia
	Cell  *CellAttrs  // KindCell
	Block *BlockAttrs // KindParagraph

	Ordered bool   // KindList
	Checked bool   // KindTodo, checkbox KindItem
	Todo    bool   // KindItem: item carries a checkbox marker
	Level   int    // KindHeading
	Lang    string // KindCodeBlock
	GroupID string // KindTaskGroup
}

type SpanAttrs struct {
	Styles    Style
	Highlight string // --en-highlight color name, "" when absent
	Color     string // CSS color or style fragment, "" when absent
}

type LinkAttrs struct {
	Href    string
	Preview bool   // rich link rendered as snippet preview
	Color   string // style carried on the anchor text
}

type ImageAttrs struct {
	Src   string
	Alt   string
	Title string
}

// MediaAttrs describes an <en-media> reference to an attached resource.
type MediaAttrs struct {
	Hash      string
	Mime      string
	Width     int // pixels, 0 when unset
	Height    int
	ViewAs    string // "attachment" when --en-viewAs:attachment
	Align     Alignment
	FullWidth bool
}

type CellAttrs struct {
	RowSpan int
	ColSpan int
	Align   Alignment
	Header  bool
}

// BlockAttrs carries paragraph-level presentation: free-standing
// indentation levels (40px per level in ENML) and text alignment.
type BlockAttrs struct {
	Indent int
	Align  Alignment
}

// NewText returns a text run node.
func NewText(s string) *Node { return &Node{Kind: KindText, Text: s} }

// Walk calls fn for n and every descendant, depth first. Traversal of a
// subtree is skipped when fn returns false for its root.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
