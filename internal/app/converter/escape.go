package converter

import (
	"regexp"
	"strings"
)

// escapeContext records where in the output a text run lands; the rule
// set differs per location.
type escapeContext struct {
	inCode      bool // code block or code span: never escape
	inRaw       bool // raw HTML passthrough: never escape
	inTable     bool // table cell: pipes break cell boundaries
	inLinkLabel bool // link label: brackets end the label
}

// The escaping policy is sparing: a character is escaped only when
// leaving it bare would plausibly change rendered meaning. It is a
// heuristic over the raw text, not a re-parse of the output; the rule
// set below is the tunable surface.
var (
	urlRe = regexp.MustCompile(`\b(?:https?|ftp)://\S+`)

	// Always-significant characters.
	specialRe = regexp.MustCompile("([\\[\\]`*$])")
	// Underscore runs opening a word can start emphasis.
	underscoreRe = regexp.MustCompile(`(^|\s)(_+)(\S)`)
	// A bare "<tag>" would be swallowed as HTML.
	htmlTagRe = regexp.MustCompile(`<([^<>]+>)`)
	// Word-leading # becomes a tag, ^ a block reference.
	hashRe  = regexp.MustCompile(`(^|\s)#([^#\s])`)
	caretRe = regexp.MustCompile(`(^|\s)\^(\S)`)
	// == and ~~ runs open highlight/strikethrough.
	eqTildeRe = regexp.MustCompile(`([=~]{2,})(\S)`)
	// Line-leading block markers and ordered-list numbers.
	lineStartRe = regexp.MustCompile(`(?m)^([ \t]*)([\-+=>#|])`)
	orderedRe   = regexp.MustCompile(`(?m)^([ \t]*\d+)(\.\s)`)
	// Strict mode also escapes emphasis runs inside words. Asterisks
	// and leading underscores are covered by the rules above, so only
	// mid-word _ and ^ remain; the leading group keeps runs already
	// escaped intact.
	strictEmphasisRe = regexp.MustCompile(`(^|[^\\])([_^]+)(\S)`)
)

type escaper struct {
	strict bool
}

func newEscaper(mode string) escaper {
	return escaper{strict: mode == EscapingStrict}
}

// Escape returns text safe for the given context. Text containing no
// Markdown-significant sequences comes back unchanged.
func (e escaper) Escape(text string, ctx escapeContext) string {
	if text == "" || ctx.inCode || ctx.inRaw {
		return text
	}
	if ctx.inLinkLabel {
		out := strings.ReplaceAll(text, "[", `\[`)
		out = strings.ReplaceAll(out, "]", `\]`)
		if ctx.inTable {
			out = strings.ReplaceAll(out, "|", `\|`)
		}
		return out
	}

	// URLs pass through untouched; everything between them is escaped.
	var b strings.Builder
	last := 0
	for _, span := range urlRe.FindAllStringIndex(text, -1) {
		b.WriteString(e.escapePart(text[last:span[0]], ctx))
		b.WriteString(text[span[0]:span[1]])
		last = span[1]
	}
	b.WriteString(e.escapePart(text[last:], ctx))
	return b.String()
}

func (e escaper) escapePart(part string, ctx escapeContext) string {
	if part == "" {
		return ""
	}

	part = specialRe.ReplaceAllString(part, `\$1`)
	part = underscoreRe.ReplaceAllStringFunc(part, func(m string) string {
		g := underscoreRe.FindStringSubmatch(m)
		return g[1] + escapeEachRune(g[2]) + g[3]
	})
	part = strings.ReplaceAll(part, "%%", `%\%`)
	part = htmlTagRe.ReplaceAllString(part, `\<$1`)
	part = hashRe.ReplaceAllString(part, `$1\#$2`)
	part = caretRe.ReplaceAllString(part, `$1\^$2`)
	part = eqTildeRe.ReplaceAllStringFunc(part, func(m string) string {
		g := eqTildeRe.FindStringSubmatch(m)
		return escapeEachRune(g[1]) + g[2]
	})
	part = lineStartRe.ReplaceAllString(part, `$1\$2`)
	part = orderedRe.ReplaceAllString(part, `$1\$2`)

	if e.strict {
		part = strictEmphasisRe.ReplaceAllStringFunc(part, func(m string) string {
			g := strictEmphasisRe.FindStringSubmatch(m)
			return g[1] + escapeEachRune(g[2]) + g[3]
		})
	}

	if ctx.inTable {
		part = strings.ReplaceAll(part, "|", `\|`)
	}
	return part
}

func escapeEachRune(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteByte('\\')
		b.WriteRune(r)
	}
	return b.String()
}
