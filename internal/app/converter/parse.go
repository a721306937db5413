package converter

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/quiettype/evernote2obsidian/internal/domain/document"
)

// indentStepPx is the padding step the editor applies per indent level.
const indentStepPx = 40

// ParseContent parses a note's ENML body into a document tree. The
// root of interest is the <en-note> element, falling back to <body>
// for content stored as plain HTML.
func ParseContent(guid, content string) (*document.Node, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, &ParseError{GUID: guid, Reason: err.Error()}
	}
	body := findElement(root, "en-note")
	if body == nil {
		body = findElement(root, "body")
	}
	doc := &document.Node{Kind: document.KindDocument}
	if body == nil {
		return doc, nil
	}
	p := &parser{}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		doc.Children = append(doc.Children, p.node(c)...)
	}
	return doc, nil
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

type parser struct {
	tableDepth int
}

func (p *parser) node(n *html.Node) []*document.Node {
	switch n.Type {
	case html.TextNode:
		// Inter-element formatting whitespace carries no content.
		if strings.ContainsRune(n.Data, '\n') && strings.TrimSpace(n.Data) == "" {
			return nil
		}
		return []*document.Node{document.NewText(n.Data)}
	case html.ElementNode:
		return p.element(n)
	default:
		return nil
	}
}

func (p *parser) children(n *html.Node) []*document.Node {
	var out []*document.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, p.node(c)...)
	}
	return out
}

func (p *parser) element(n *html.Node) []*document.Node {
	style := styleMap(attrVal(n, "style"))

	switch n.Data {
	case "div":
		return p.div(n, style)
	case "p":
		return []*document.Node{p.block(n, style)}
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		return []*document.Node{{
			Kind:     document.KindHeading,
			Level:    level,
			Children: p.children(n),
		}}
	case "b", "strong":
		return p.styled(n, document.StyleBold)
	case "i", "em":
		return p.styled(n, document.StyleItalic)
	case "u", "ins":
		return p.styled(n, document.StyleUnderline)
	case "s", "strike", "del":
		return p.styled(n, document.StyleStrike)
	case "sup":
		return p.styled(n, document.StyleSuperscript)
	case "sub":
		return p.styled(n, document.StyleSubscript)
	case "span":
		return p.span(n, style)
	case "font":
		if color := attrVal(n, "color"); color != "" {
			return []*document.Node{{
				Kind:     document.KindSpan,
				Span:     &document.SpanAttrs{Color: color},
				Children: p.children(n),
			}}
		}
		return p.children(n)
	case "a":
		return []*document.Node{{
			Kind: document.KindLink,
			Link: &document.LinkAttrs{
				Href:  attrVal(n, "href"),
				Color: style["color"],
			},
			Children: p.children(n),
		}}
	case "img":
		return []*document.Node{{
			Kind: document.KindImage,
			Image: &document.ImageAttrs{
				Src:   attrVal(n, "src"),
				Alt:   attrVal(n, "alt"),
				Title: attrVal(n, "title"),
			},
		}}
	case "en-media":
		// The HTML5 parser ignores the self-closing slash on unknown
		// elements, so trailing content may land inside; reattach it
		// as siblings.
		return append([]*document.Node{p.media(n, style)}, p.children(n)...)
	case "en-todo":
		checked := attrVal(n, "checked") == "true" || style["--en-checked"] == "true"
		todo := &document.Node{Kind: document.KindTodo, Checked: checked}
		return append([]*document.Node{todo}, p.children(n)...)
	case "en-crypt":
		return []*document.Node{rawNode(n)}
	case "ul", "ol":
		return []*document.Node{{
			Kind:     document.KindList,
			Ordered:  n.Data == "ol",
			Children: p.children(n),
		}}
	case "li":
		checked := style["--en-checked"] == "true"
		return []*document.Node{{
			Kind:     document.KindItem,
			Checked:  checked,
			Todo:     style["--en-checked"] != "",
			Children: p.children(n),
		}}
	case "table":
		if p.tableDepth > 0 {
			return []*document.Node{rawNode(n)}
		}
		p.tableDepth++
		rows := p.children(n)
		p.tableDepth--
		return []*document.Node{{Kind: document.KindTable, Children: rows}}
	case "thead", "tbody", "tfoot", "colgroup":
		return p.children(n)
	case "tr":
		return []*document.Node{{Kind: document.KindRow, Children: p.children(n)}}
	case "td", "th":
		return []*document.Node{{
			Kind: document.KindCell,
			Cell: &document.CellAttrs{
				RowSpan: intAttr(n, "rowspan"),
				ColSpan: intAttr(n, "colspan"),
				Align:   alignFromStyle(style),
				Header:  n.Data == "th",
			},
			Children: p.children(n),
		}}
	case "blockquote":
		return []*document.Node{{Kind: document.KindQuote, Children: p.children(n)}}
	case "pre":
		return []*document.Node{{
			Kind: document.KindCodeBlock,
			Lang: style["--en-syntaxlanguage"],
			Text: textContent(n),
		}}
	case "code", "tt", "kbd", "samp":
		return []*document.Node{{Kind: document.KindCodeSpan, Text: textContent(n)}}
	case "br":
		return []*document.Node{{Kind: document.KindLineBreak}}
	case "hr":
		return []*document.Node{{Kind: document.KindDivider}}
	case "script", "style", "head", "title", "meta", "link":
		return nil
	default:
		return p.children(n)
	}
}

// div carries most of the editor's block-level dialect markers in its
// style attribute.
func (p *parser) div(n *html.Node, style map[string]string) []*document.Node {
	switch {
	case style["--en-codeblock"] == "true":
		return []*document.Node{{
			Kind: document.KindCodeBlock,
			Lang: style["--en-syntaxlanguage"],
			Text: codeBlockText(n),
		}}
	case style["--en-task-group"] == "true":
		return []*document.Node{{
			Kind:    document.KindTaskGroup,
			GroupID: style["--en-id"],
		}}
	case style["--en-tableofcontents"] == "true":
		return []*document.Node{{Kind: document.KindTOC}}
	case style["--en-richlink"] == "true":
		block := p.block(n, style)
		if strings.Contains(style["--en-viewas"], "snippet-preview") {
			markPreviewLinks(block)
		}
		return []*document.Node{block}
	case isOpaqueLayout(style):
		return []*document.Node{rawNode(n)}
	}
	return []*document.Node{p.block(n, style)}
}

func (p *parser) block(n *html.Node, style map[string]string) *document.Node {
	return &document.Node{
		Kind: document.KindParagraph,
		Block: &document.BlockAttrs{
			Indent: indentFromStyle(style),
			Align:  alignFromStyle(style),
		},
		Children: p.children(n),
	}
}

func (p *parser) styled(n *html.Node, s document.Style) []*document.Node {
	return []*document.Node{{
		Kind:     document.KindSpan,
		Span:     &document.SpanAttrs{Styles: s},
		Children: p.children(n),
	}}
}

func (p *parser) span(n *html.Node, style map[string]string) []*document.Node {
	attrs := document.SpanAttrs{
		Highlight: style["--en-highlight"],
		Color:     style["color"],
	}
	if attrs.Highlight == "" && style["background-color"] != "" {
		attrs.Highlight = style["background-color"]
	}
	switch style["font-weight"] {
	case "bold", "600", "700", "800", "900":
		attrs.Styles |= document.StyleBold
	}
	if style["font-style"] == "italic" {
		attrs.Styles |= document.StyleItalic
	}
	if deco := style["text-decoration"]; strings.Contains(deco, "underline") {
		attrs.Styles |= document.StyleUnderline
	} else if strings.Contains(deco, "line-through") {
		attrs.Styles |= document.StyleStrike
	}
	if attrs == (document.SpanAttrs{}) {
		return p.children(n)
	}
	return []*document.Node{{
		Kind:     document.KindSpan,
		Span:     &attrs,
		Children: p.children(n),
	}}
}

func (p *parser) media(n *html.Node, style map[string]string) *document.Node {
	alignment := strings.ToLower(style["--en-imagealignment"])
	return &document.Node{
		Kind: document.KindMedia,
		Media: &document.MediaAttrs{
			Hash:      attrVal(n, "hash"),
			Mime:      attrVal(n, "type"),
			Width:     intAttr(n, "width"),
			Height:    intAttr(n, "height"),
			ViewAs:    strings.ToLower(style["--en-viewas"]),
			Align:     mediaAlign(alignment),
			FullWidth: alignment == "fullwidth",
		},
	}
}

func mediaAlign(v string) document.Alignment {
	switch v {
	case "center":
		return document.AlignCenter
	case "right":
		return document.AlignRight
	}
	return document.AlignNone
}

// codeBlockText joins the line divs of an editor code block. Plain
// text children occur in older notes and are kept verbatim.
func codeBlockText(n *html.Node) string {
	var lines []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.ElementNode && c.Data == "div":
			lines = append(lines, textContent(c))
		case c.Type == html.TextNode:
			lines = append(lines, c.Data)
		}
	}
	return strings.Join(lines, "\n")
}

// markPreviewLinks flags every link under a rich-link block so the
// emitter embeds the target instead of linking to it.
func markPreviewLinks(n *document.Node) {
	if n.Kind == document.KindLink && n.Link != nil {
		n.Link.Preview = true
	}
	for _, c := range n.Children {
		markPreviewLinks(c)
	}
}

// isOpaqueLayout reports whether a block uses layout styling that has
// no Markdown equivalent and must pass through as HTML.
func isOpaqueLayout(style map[string]string) bool {
	if style["display"] == "flex" || style["position"] == "absolute" {
		return true
	}
	if _, ok := style["box-shadow"]; ok {
		return true
	}
	if f := style["float"]; f == "left" || f == "right" {
		return true
	}
	return false
}

func rawNode(n *html.Node) *document.Node {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return document.NewText(textContent(n))
	}
	return &document.Node{Kind: document.KindRaw, Text: b.String()}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(m *html.Node) {
		if m.Type == html.TextNode {
			b.WriteString(m.Data)
		}
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func intAttr(n *html.Node, key string) int {
	v, err := strconv.Atoi(attrVal(n, key))
	if err != nil {
		return 0
	}
	return v
}

// styleMap parses an inline style attribute into lowercased keys.
// Values keep their case except for the editor's own marker values.
func styleMap(style string) map[string]string {
	m := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		m[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return m
}

func indentFromStyle(style map[string]string) int {
	for _, key := range []string{"padding-left", "margin-left"} {
		v, ok := style[key]
		if !ok {
			continue
		}
		v = strings.TrimSuffix(v, "px")
		px, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || px <= 0 {
			continue
		}
		return int(px) / indentStepPx
	}
	return 0
}

func alignFromStyle(style map[string]string) document.Alignment {
	switch style["text-align"] {
	case "left":
		return document.AlignLeft
	case "center":
		return document.AlignCenter
	case "right":
		return document.AlignRight
	}
	return document.AlignNone
}
