package converter

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/quiettype/evernote2obsidian/internal/domain/document"
	"github.com/quiettype/evernote2obsidian/internal/domain/evernote"
)

// linkGreens are the accent colors the editor paints internal links
// with. They carry no information of their own, so they are dropped
// unless the user asks to keep them.
var linkGreens = map[string]bool{
	"#00a82d":         true,
	"rgb(0, 168, 45)": true,
	"green":           true,
}

// renderer walks one note's document tree and emits Obsidian Markdown.
// Not safe for reuse across notes; the exporter builds one per note.
type renderer struct {
	opts   Options
	esc    escaper
	index  *LinkIndex
	note   *evernote.Note
	groups map[string]string
	issues *issueList
	lists  *listState
	ctx    escapeContext
}

func newRenderer(note *evernote.Note, index *LinkIndex, opts Options, issues *issueList) *renderer {
	return &renderer{
		opts:   opts,
		esc:    newEscaper(opts.Escaping),
		index:  index,
		note:   note,
		groups: FormatTaskGroups(note.Tasks),
		issues: issues,
		lists:  newListState(opts.IndentUnit),
	}
}

// Body renders the whole document. Every block contributes its own
// trailing newline.
func (r *renderer) Body(doc *document.Node) string {
	return strings.TrimRight(r.blocks(doc.Children), "\n") + "\n"
}

func (r *renderer) blocks(nodes []*document.Node) string {
	var b strings.Builder
	var inlineRun []*document.Node
	flush := func() {
		if len(inlineRun) == 0 {
			return
		}
		b.WriteString(r.paragraphText(inlineRun))
		b.WriteString("\n")
		inlineRun = nil
	}
	for _, n := range nodes {
		if isBlock(n.Kind) {
			flush()
			b.WriteString(r.block(n))
		} else {
			inlineRun = append(inlineRun, n)
		}
	}
	flush()
	return b.String()
}

func isBlock(k document.Kind) bool {
	switch k {
	case document.KindParagraph, document.KindHeading, document.KindList,
		document.KindItem, document.KindTable, document.KindQuote,
		document.KindCodeBlock, document.KindDivider, document.KindTaskGroup,
		document.KindTOC, document.KindRaw:
		return true
	}
	return false
}

func (r *renderer) block(n *document.Node) string {
	switch n.Kind {
	case document.KindParagraph:
		return r.paragraph(n)
	case document.KindHeading:
		level := n.Level
		if level < 1 {
			level = 1
		} else if level > 6 {
			level = 6
		}
		return strings.Repeat("#", level) + " " + strings.TrimSpace(r.inline(n.Children)) + "\n"
	case document.KindList:
		return r.list(n)
	case document.KindItem:
		// stray item outside a list still renders as a bullet
		return r.item(n)
	case document.KindTable:
		return r.table(n)
	case document.KindQuote:
		inner := strings.TrimRight(r.blocks(n.Children), "\n")
		var b strings.Builder
		for _, line := range strings.Split(inner, "\n") {
			b.WriteString("> ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		return b.String()
	case document.KindCodeBlock:
		return r.codeBlock(n)
	case document.KindDivider:
		return "---\n"
	case document.KindTaskGroup:
		lines, ok := r.groups[n.GroupID]
		if !ok {
			r.issues.add(CategoryUnsupported, "task group %s has no tasks in the archive", n.GroupID)
			return ""
		}
		return lines + "\n"
	case document.KindTOC:
		r.issues.add(CategoryUnsupported, "table of contents block dropped")
		return "*Table of contents not converted*\n"
	case document.KindRaw:
		if !r.opts.useHTML() {
			r.issues.add(CategoryUnsupported, "layout block kept as raw HTML")
		}
		return strings.TrimRight(n.Text, "\n") + "\n"
	}
	return ""
}

// paragraph renders one block of inline content, then applies the
// block's indentation and alignment.
func (r *renderer) paragraph(n *document.Node) string {
	text := r.paragraphText(n.Children)
	if n.Block != nil {
		switch n.Block.Align {
		case document.AlignCenter, document.AlignRight:
			if r.opts.useHTML() {
				side := "center"
				if n.Block.Align == document.AlignRight {
					side = "right"
				}
				text = fmt.Sprintf(`<div style="text-align: %s;">%s</div>`, side, text)
			} else {
				r.issues.add(CategoryUnsupported, "%s alignment dropped", "text")
			}
		}
		if n.Block.Indent > 0 {
			text = r.lists.indentBlock(text, n.Block.Indent)
		}
	}
	return text + "\n"
}

// paragraphText joins a paragraph's inline children. Line breaks split
// the content into physical lines, and a line opening with a checkbox
// marker becomes a task line. A checkbox after other content on the
// same source line also opens a fresh line; mid-line checkboxes are
// not checkboxes to Obsidian.
func (r *renderer) paragraphText(nodes []*document.Node) string {
	var segments [][]*document.Node
	current := []*document.Node{}
	for _, n := range nodes {
		if n.Kind == document.KindLineBreak {
			segments = append(segments, current)
			current = []*document.Node{}
			continue
		}
		if n.Kind == document.KindTodo && len(current) > 0 {
			segments = append(segments, current)
			current = []*document.Node{}
		}
		current = append(current, n)
	}
	segments = append(segments, current)

	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		if len(seg) > 0 && seg[0].Kind == document.KindTodo {
			marker := "- [ ] "
			if seg[0].Checked {
				marker = "- [x] "
			}
			lines = append(lines, marker+strings.TrimSpace(r.inline(seg[1:])))
			continue
		}
		lines = append(lines, r.inline(seg))
	}
	return strings.Join(lines, "\n")
}

func (r *renderer) list(n *document.Node) string {
	r.lists.push(n.Ordered)
	defer r.lists.pop()
	var b strings.Builder
	for _, c := range n.Children {
		if c.Kind != document.KindItem {
			b.WriteString(r.block(c))
			continue
		}
		b.WriteString(r.item(c))
	}
	return b.String()
}

func (r *renderer) item(n *document.Node) string {
	var nested []*document.Node
	var own []*document.Node
	for _, c := range n.Children {
		if c.Kind == document.KindList {
			nested = append(nested, c)
			continue
		}
		own = append(own, c)
	}

	prefix := r.lists.itemPrefix(n.Todo, n.Checked)
	content := strings.TrimRight(r.blocks(own), "\n")
	out := prefix + hangingIndent(content, prefix) + "\n"
	for _, l := range nested {
		out += r.block(l)
	}
	return out
}

func (r *renderer) table(n *document.Node) string {
	prevTable := r.ctx.inTable
	r.ctx.inTable = true
	defer func() { r.ctx.inTable = prevTable }()

	var rows [][]tableCell
	for _, rowNode := range n.Children {
		if rowNode.Kind != document.KindRow {
			continue
		}
		var row []tableCell
		for _, cellNode := range rowNode.Children {
			if cellNode.Kind != document.KindCell {
				continue
			}
			c := tableCell{text: strings.TrimRight(r.blocks(cellNode.Children), "\n")}
			if cellNode.Cell != nil {
				c.rowSpan = cellNode.Cell.RowSpan
				c.colSpan = cellNode.Cell.ColSpan
				c.align = cellNode.Cell.Align
			}
			row = append(row, c)
		}
		rows = append(rows, row)
	}

	out, clamped := renderTable(rows)
	if clamped {
		r.issues.add(CategorySpanOverflow, "table cell span exceeds the table grid, clamped")
	}
	return out
}

func (r *renderer) codeBlock(n *document.Node) string {
	fence := "```"
	for strings.Contains(n.Text, fence) {
		fence += "`"
	}
	return fence + n.Lang + "\n" + strings.TrimRight(n.Text, "\n") + "\n" + fence + "\n"
}

func (r *renderer) inline(nodes []*document.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(r.inlineNode(n))
	}
	return b.String()
}

func (r *renderer) inlineNode(n *document.Node) string {
	switch n.Kind {
	case document.KindText:
		return r.esc.Escape(n.Text, r.ctx)
	case document.KindSpan:
		return r.span(n)
	case document.KindLink:
		return r.link(n)
	case document.KindImage:
		return fmt.Sprintf("![%s](%s)", n.Image.Alt, n.Image.Src)
	case document.KindMedia:
		return r.media(n)
	case document.KindTodo:
		// mid-line checkbox with no line of its own
		if n.Checked {
			return "[x] "
		}
		return "[ ] "
	case document.KindCodeSpan:
		return codeSpan(n.Text)
	case document.KindLineBreak:
		return "\n"
	case document.KindRaw:
		return n.Text
	default:
		// block node in inline position: render it standalone
		return r.block(n)
	}
}

func (r *renderer) span(n *document.Node) string {
	content := r.inline(n.Children)
	if strings.TrimSpace(content) == "" {
		return content
	}
	a := n.Span

	if a.Styles.Has(document.StyleBold) {
		content = wrapMarker(content, "**")
	}
	if a.Styles.Has(document.StyleItalic) {
		content = wrapMarker(content, "_")
	}
	if a.Styles.Has(document.StyleStrike) {
		content = wrapMarker(content, "~~")
	}
	if a.Styles.Has(document.StyleUnderline) {
		content = r.htmlWrap(content, "u", "underline")
	}
	if a.Styles.Has(document.StyleSuperscript) {
		content = r.htmlWrap(content, "sup", "superscript")
	}
	if a.Styles.Has(document.StyleSubscript) {
		content = r.htmlWrap(content, "sub", "subscript")
	}

	if a.Highlight != "" {
		if a.Highlight == "yellow" || !r.opts.useHTML() {
			content = wrapMarker(content, "==")
		} else {
			content = fmt.Sprintf(`<mark style="background: %s;">%s</mark>`, a.Highlight, content)
		}
	}
	if a.Color != "" && !linkGreens[strings.ToLower(a.Color)] {
		if r.opts.useHTML() {
			content = fmt.Sprintf(`<span style="color: %s;">%s</span>`, a.Color, content)
		} else {
			r.issues.add(CategoryUnsupported, "text color dropped")
		}
	}
	return content
}

// htmlWrap wraps content in a plain HTML tag when the dialect allows
// it; the pure Markdown dialect drops the formatting and reports it.
func (r *renderer) htmlWrap(content, tag, what string) string {
	if !r.opts.useHTML() {
		r.issues.add(CategoryUnsupported, "%s formatting dropped", what)
		return content
	}
	return "<" + tag + ">" + content + "</" + tag + ">"
}

func (r *renderer) link(n *document.Node) string {
	href := n.Link.Href

	if target, ok := r.index.Resolve(href); ok {
		label := r.wikiLabel(n.Children)
		out := wikilink(target, label, r.ctx.inTable)
		if n.Link.Preview {
			out = "!" + out
		}
		return r.linkColor(out, n.Link.Color)
	}
	if evernote.IsNoteLink(href) {
		label := strings.TrimSpace(r.inline(n.Children))
		r.issues.add(CategoryUnresolvedLink, "link to a note outside the export: %q", label)
		return label
	}

	prevLabel := r.ctx.inLinkLabel
	r.ctx.inLinkLabel = true
	label := strings.TrimSpace(r.inline(n.Children))
	r.ctx.inLinkLabel = prevLabel

	href = strings.ReplaceAll(href, " ", "%20")
	if label == "" || label == href {
		return "<" + href + ">"
	}
	out := fmt.Sprintf("[%s](%s)", r.bracketLabel(label), href)
	return r.linkColor(out, n.Link.Color)
}

// bracketLabel swaps square brackets in a link label for parentheses
// when the option is on; some plugins choke on nested brackets there.
func (r *renderer) bracketLabel(label string) string {
	if !r.opts.EscapeBrackets {
		return label
	}
	label = strings.ReplaceAll(label, `\[`, "(")
	label = strings.ReplaceAll(label, `\]`, ")")
	label = strings.ReplaceAll(label, "[", "(")
	return strings.ReplaceAll(label, "]", ")")
}

func (r *renderer) linkColor(out, color string) string {
	if color == "" {
		return out
	}
	if linkGreens[strings.ToLower(color)] && !r.opts.KeepLinkColor {
		return out
	}
	if !r.opts.useHTML() {
		return out
	}
	return fmt.Sprintf(`<span style="color: %s;">%s</span>`, color, out)
}

// wikiLabel renders link children as a wikilink alias. Wikilink labels
// take no Markdown escapes, so escaping is suspended; brackets that
// would close the link are dropped.
func (r *renderer) wikiLabel(nodes []*document.Node) string {
	prevRaw := r.ctx.inRaw
	r.ctx.inRaw = true
	label := strings.TrimSpace(r.inline(nodes))
	r.ctx.inRaw = prevRaw
	label = strings.ReplaceAll(label, "[[", "")
	label = strings.ReplaceAll(label, "]]", "")
	return r.bracketLabel(label)
}

func wikilink(target, label string, inTable bool) string {
	if label == "" || label == target || label == path.Base(target) {
		return "[[" + target + "]]"
	}
	sep := "|"
	if inTable {
		sep = `\|`
	}
	return "[[" + target + sep + label + "]]"
}

func (r *renderer) media(n *document.Node) string {
	m := n.Media
	p, ok := r.index.ResourcePath(r.note.GUID, m.Hash)
	if !ok {
		r.issues.add(CategoryUnsupported, "attachment %s not present in the archive", m.Hash)
		return ""
	}

	name := path.Base(p)
	sep := "|"
	if r.ctx.inTable {
		sep = `\|`
	}

	var out string
	switch {
	case m.ViewAs == "attachment":
		out = "[[" + p + sep + name + "]]"
	case strings.HasPrefix(m.Mime, "image/"):
		if m.Width > 0 && !m.FullWidth {
			out = fmt.Sprintf("![[%s%s%d]]", p, sep, m.Width)
		} else {
			out = "![[" + p + "]]"
		}
	case m.Mime == "application/pdf" && r.opts.PDFView == PDFViewTitle:
		out = "[[" + p + sep + name + "]]"
	default:
		out = "![[" + p + "]]"
	}

	if r.opts.useHTML() {
		switch m.Align {
		case document.AlignCenter:
			out = `<div style="text-align: center;">` + out + "</div>"
		case document.AlignRight:
			out = `<div style="text-align: right;">` + out + "</div>"
		}
	}
	return out
}

func codeSpan(text string) string {
	if !strings.Contains(text, "`") {
		return "`" + text + "`"
	}
	fence := "``"
	for strings.Contains(text, fence) {
		fence += "`"
	}
	return fence + " " + text + " " + fence
}

// wrapMarker wraps content in an emphasis marker, moving surrounding
// whitespace outside so the marker hugs the text.
func wrapMarker(content, marker string) string {
	stripped := strings.TrimLeftFunc(content, unicode.IsSpace)
	lead := content[:len(content)-len(stripped)]
	inner := strings.TrimRightFunc(stripped, unicode.IsSpace)
	if inner == "" {
		return content
	}
	trail := stripped[len(inner):]
	return lead + marker + inner + marker + trail
}
