package converter

import (
	"strings"
	"testing"

	"github.com/quiettype/evernote2obsidian/internal/domain/document"
)

func parseBody(t *testing.T, body string) *document.Node {
	t.Helper()
	doc, err := ParseContent("guid-1", "<en-note>"+body+"</en-note>")
	if err != nil {
		t.Fatalf("ParseContent: %v", err)
	}
	return doc
}

func TestParseParagraphAndText(t *testing.T) {
	doc := parseBody(t, "<div>hello world</div>")
	if len(doc.Children) != 1 {
		t.Fatalf("children = %d", len(doc.Children))
	}
	p := doc.Children[0]
	if p.Kind != document.KindParagraph {
		t.Fatalf("kind = %v", p.Kind)
	}
	if len(p.Children) != 1 || p.Children[0].Text != "hello world" {
		t.Errorf("text = %+v", p.Children)
	}
}

func TestParseInlineStyles(t *testing.T) {
	doc := parseBody(t, "<div><b>bold</b><i>it</i><span style=\"font-weight:bold;\">sb</span></div>")
	p := doc.Children[0]
	if len(p.Children) != 3 {
		t.Fatalf("spans = %d", len(p.Children))
	}
	if !p.Children[0].Span.Styles.Has(document.StyleBold) {
		t.Error("b not bold")
	}
	if !p.Children[1].Span.Styles.Has(document.StyleItalic) {
		t.Error("i not italic")
	}
	if !p.Children[2].Span.Styles.Has(document.StyleBold) {
		t.Error("styled span not bold")
	}
}

func TestParseHighlightMarker(t *testing.T) {
	doc := parseBody(t, `<div><span style="--en-highlight:yellow;">hi</span></div>`)
	span := doc.Children[0].Children[0]
	if span.Span == nil || span.Span.Highlight != "yellow" {
		t.Errorf("span = %+v", span.Span)
	}
}

func TestParseCodeBlockMarker(t *testing.T) {
	doc := parseBody(t, `<div style="--en-codeblock:true; --en-syntaxLanguage:python;"><div>a = 1</div><div>b = 2</div></div>`)
	cb := doc.Children[0]
	if cb.Kind != document.KindCodeBlock {
		t.Fatalf("kind = %v", cb.Kind)
	}
	if cb.Lang != "python" {
		t.Errorf("lang = %q", cb.Lang)
	}
	if cb.Text != "a = 1\nb = 2" {
		t.Errorf("text = %q", cb.Text)
	}
}

func TestParseTaskGroupAndTOC(t *testing.T) {
	doc := parseBody(t, `<div style="--en-task-group:true; --en-id:abc123;"></div><div style="--en-tableofcontents:true;">x</div>`)
	if doc.Children[0].Kind != document.KindTaskGroup || doc.Children[0].GroupID != "abc123" {
		t.Errorf("task group = %+v", doc.Children[0])
	}
	if doc.Children[1].Kind != document.KindTOC {
		t.Errorf("toc = %+v", doc.Children[1])
	}
}

func TestParseTodoAndMedia(t *testing.T) {
	doc := parseBody(t, `<div><en-todo checked="true"/>done</div><div><en-media hash="deadbeef" type="image/png" width="300"/></div>`)
	todo := doc.Children[0].Children[0]
	if todo.Kind != document.KindTodo || !todo.Checked {
		t.Errorf("todo = %+v", todo)
	}
	media := doc.Children[1].Children[0]
	if media.Kind != document.KindMedia {
		t.Fatalf("media kind = %v", media.Kind)
	}
	if media.Media.Hash != "deadbeef" || media.Media.Mime != "image/png" || media.Media.Width != 300 {
		t.Errorf("media = %+v", media.Media)
	}
}

func TestParseIndentAndAlignment(t *testing.T) {
	doc := parseBody(t, `<div style="padding-left:80px;text-align:center;">deep</div>`)
	b := doc.Children[0].Block
	if b.Indent != 2 {
		t.Errorf("indent = %d", b.Indent)
	}
	if b.Align != document.AlignCenter {
		t.Errorf("align = %v", b.Align)
	}
}

func TestParseLists(t *testing.T) {
	doc := parseBody(t, "<ol><li>one</li><li>two<ul><li>sub</li></ul></li></ol>")
	list := doc.Children[0]
	if list.Kind != document.KindList || !list.Ordered {
		t.Fatalf("list = %+v", list)
	}
	if len(list.Children) != 2 {
		t.Fatalf("items = %d", len(list.Children))
	}
	second := list.Children[1]
	var nested *document.Node
	for _, c := range second.Children {
		if c.Kind == document.KindList {
			nested = c
		}
	}
	if nested == nil || nested.Ordered {
		t.Errorf("nested list = %+v", nested)
	}
}

func TestParseTable(t *testing.T) {
	doc := parseBody(t, `<table><tbody><tr><td colspan="2">a</td></tr><tr><td>b</td><td>c</td></tr></tbody></table>`)
	tb := doc.Children[0]
	if tb.Kind != document.KindTable {
		t.Fatalf("kind = %v", tb.Kind)
	}
	if len(tb.Children) != 2 {
		t.Fatalf("rows = %d", len(tb.Children))
	}
	first := tb.Children[0].Children[0]
	if first.Cell.ColSpan != 2 {
		t.Errorf("colspan = %d", first.Cell.ColSpan)
	}
}

func TestParseNestedTableIsRaw(t *testing.T) {
	doc := parseBody(t, "<table><tr><td><table><tr><td>in</td></tr></table></td></tr></table>")
	var raw *document.Node
	document.Walk(doc, func(n *document.Node) bool {
		if n.Kind == document.KindRaw {
			raw = n
		}
		return true
	})
	if raw == nil {
		t.Fatal("no raw node for nested table")
	}
	if !strings.Contains(raw.Text, "<table>") {
		t.Errorf("raw = %q", raw.Text)
	}
}

func TestParseOpaqueLayoutIsRaw(t *testing.T) {
	doc := parseBody(t, `<div style="display:flex;">boxed</div>`)
	if doc.Children[0].Kind != document.KindRaw {
		t.Errorf("kind = %v", doc.Children[0].Kind)
	}
}

func TestParseDropsScriptAndStyle(t *testing.T) {
	doc := parseBody(t, "<div>keep</div><style>.x{}</style>")
	for _, c := range doc.Children {
		if c.Kind == document.KindRaw {
			t.Errorf("style leaked: %+v", c)
		}
	}
}

func TestParseEmptyContent(t *testing.T) {
	doc, err := ParseContent("guid-1", "")
	if err != nil {
		t.Fatalf("ParseContent: %v", err)
	}
	if len(doc.Children) != 0 {
		t.Errorf("children = %d", len(doc.Children))
	}
}
