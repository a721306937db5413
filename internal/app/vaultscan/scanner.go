// Package vaultscan checks a written vault the way Obsidian will read
// it: every wikilink and Markdown link is resolved against the files
// actually on disk, independent of the conversion that produced them.
package vaultscan

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Report is the outcome of one vault scan.
type Report struct {
	Files         int
	EmptyNotes    []string
	InternalLinks int
	ExternalLinks int

	// NotFound maps a link target to the notes referencing it.
	NotFound map[string][]string
	// Ambiguous maps a bare link target to the multiple files it could
	// mean. Obsidian picks one silently; these deserve a look.
	Ambiguous map[string][]string
}

type Scanner struct {
	md goldmark.Markdown
}

func New() *Scanner {
	return &Scanner{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
	}
}

// wikiRe matches [[target]], [[target|label]] and [[target#anchor]].
// Escaped opening brackets are filtered out by the caller since the
// regexp engine has no lookbehind.
var wikiRe = regexp.MustCompile(`\[\[([^][|#\n]+)[^][\n]*\]\]`)

var fenceRe = regexp.MustCompile("^\\s*(```|~~~)")

func (s *Scanner) ScanVault(root string) (*Report, error) {
	rels, files, byBase, err := collectFiles(root)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		NotFound:  make(map[string][]string),
		Ambiguous: make(map[string][]string),
	}

	for _, rel := range rels {
		if !strings.HasSuffix(rel, ".md") {
			continue
		}
		rep.Files++
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		body := stripFrontmatter(string(content))
		if strings.TrimSpace(body) == "" {
			rep.EmptyNotes = append(rep.EmptyNotes, rel)
			continue
		}
		s.scanNote(rel, body, files, byBase, rep)
	}
	return rep, nil
}

func (s *Scanner) scanNote(rel, body string, files map[string]bool, byBase map[string][]string, rep *Report) {
	// Markdown links via the AST, which skips code for free.
	src := []byte(body)
	doc := s.md.Parser().Parse(text.NewReader(src))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch l := n.(type) {
		case *ast.Link:
			s.checkDest(rel, string(l.Destination), files, byBase, rep)
		case *ast.AutoLink:
			rep.ExternalLinks++
		}
		return ast.WalkContinue, nil
	})

	// Wikilinks are not Markdown; scan raw lines, skipping fenced code.
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		if fenceRe.MatchString(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		for _, m := range wikiRe.FindAllStringSubmatchIndex(line, -1) {
			if m[0] > 0 && line[m[0]-1] == '\\' {
				continue
			}
			rep.InternalLinks++
			target := strings.TrimSpace(line[m[2]:m[3]])
			s.resolveWikilink(rel, target, files, byBase, rep)
		}
	}
}

func (s *Scanner) checkDest(rel, dest string, files map[string]bool, byBase map[string][]string, rep *Report) {
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:") {
		rep.ExternalLinks++
		return
	}
	if dest == "" || strings.HasPrefix(dest, "#") {
		return
	}
	rep.InternalLinks++
	dest, _, _ = strings.Cut(dest, "#")
	dest = strings.ReplaceAll(dest, "%20", " ")
	// relative to the linking note's folder, then vault root
	cand := path.Join(path.Dir(rel), dest)
	if files[strings.ToLower(cand)] || files[strings.ToLower(dest)] {
		return
	}
	rep.NotFound[dest] = append(rep.NotFound[dest], rel)
}

func (s *Scanner) resolveWikilink(rel, target string, files map[string]bool, byBase map[string][]string, rep *Report) {
	lower := strings.ToLower(target)
	if strings.ContainsRune(target, '/') {
		if files[lower+".md"] || files[lower] {
			return
		}
		rep.NotFound[target] = append(rep.NotFound[target], rel)
		return
	}
	matches := byBase[lower]
	switch {
	case len(matches) == 0:
		rep.NotFound[target] = append(rep.NotFound[target], rel)
	case len(matches) > 1:
		rep.Ambiguous[target] = matches
	}
}

// collectFiles indexes every file under root: the relative paths in
// walk order, a lowercased path set for lookups, and markdown and
// attachment names by bare base name the way Obsidian resolves
// shortest-path links.
func collectFiles(root string) ([]string, map[string]bool, map[string][]string, error) {
	var rels []string
	files := make(map[string]bool)
	byBase := make(map[string][]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		rels = append(rels, rel)
		files[strings.ToLower(rel)] = true

		base := path.Base(rel)
		if strings.HasSuffix(base, ".md") {
			base = strings.TrimSuffix(base, ".md")
		}
		byBase[strings.ToLower(base)] = append(byBase[strings.ToLower(base)], rel)
		return nil
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("walk vault %s: %w", root, err)
	}
	sort.Strings(rels)
	return rels, files, byBase, nil
}

func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---\n") {
		return content
	}
	rest := content[len("---\n"):]
	if i := strings.Index(rest, "\n---\n"); i >= 0 {
		return rest[i+len("\n---\n"):]
	}
	if strings.HasSuffix(rest, "\n---") {
		return ""
	}
	return content
}

