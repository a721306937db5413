// Package vaultfs writes the converted vault to disk and owns the
// filename rules: characters Obsidian cannot stand, collision-free
// naming, and extensions for extracted attachments.
package vaultfs

import (
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ResourceDir is the per-notebook folder attachments are written to.
const ResourceDir = "_resources"

var invalidChars = regexp.MustCompile(`[\\*"/<>:|?]`)

// SafeName makes a note title usable as a file name. Forbidden
// characters collapse to spaces; Windows chokes on trailing dots and
// spaces, so those go too.
func SafeName(title string) string {
	s := invalidChars.ReplaceAllString(title, " ")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, ". ")
	if s == "" {
		s = "Untitled"
	}
	return s
}

// InvalidTitleChars returns the forbidden characters a title contains.
func InvalidTitleChars(title string) string {
	matches := invalidChars.FindAllString(title, -1)
	return strings.Join(matches, "")
}

// UniqueName reserves a name within used, appending " (n)" before the
// extension until it is free. Lookup is case-insensitive because the
// vault may land on a case-insensitive filesystem.
func UniqueName(used map[string]bool, dir, base, ext string) string {
	name := base + ext
	for n := 2; used[strings.ToLower(path.Join(dir, name))]; n++ {
		name = fmt.Sprintf("%s (%d)%s", base, n, ext)
	}
	used[strings.ToLower(path.Join(dir, name))] = true
	return name
}

// ToPosix normalizes a vault-relative path to forward slashes, the form
// Obsidian links use on every platform.
func ToPosix(p string) string {
	return strings.ReplaceAll(p, string(filepath.Separator), "/")
}

// preferredExt pins extensions for types where the platform MIME
// database is ambiguous or absent.
var preferredExt = map[string]string{
	"image/jpeg":               ".jpg",
	"image/png":                ".png",
	"image/gif":                ".gif",
	"image/svg+xml":            ".svg",
	"image/webp":               ".webp",
	"audio/mpeg":               ".mp3",
	"audio/wav":                ".wav",
	"audio/webm":               ".webm",
	"video/mp4":                ".mp4",
	"video/quicktime":          ".mov",
	"application/pdf":          ".pdf",
	"application/octet-stream": ".bin",
}

// ResourceFileName picks the on-disk name for an attachment. The
// original file name wins when present; otherwise the content hash
// plus a MIME-derived extension.
func ResourceFileName(fileName, mimeType, hash string) string {
	if fileName != "" {
		return SafeName(fileName)
	}
	ext, ok := preferredExt[mimeType]
	if !ok {
		if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
			ext = exts[0]
		} else {
			ext = ".bin"
		}
	}
	return hash + ext
}

// Vault is the output directory being written.
type Vault struct {
	Root string
}

func New(root string) *Vault { return &Vault{Root: root} }

func (v *Vault) abs(rel string) string {
	return filepath.Join(v.Root, filepath.FromSlash(rel))
}

// Exists reports whether the vault-relative path is already on disk.
func (v *Vault) Exists(rel string) bool {
	_, err := os.Stat(v.abs(rel))
	return err == nil
}

// WriteNote writes a converted note, creating parent folders as needed.
// With overwrite off an existing file is left alone.
func (v *Vault) WriteNote(rel string, data []byte, overwrite bool) (written bool, err error) {
	target := v.abs(rel)
	if !overwrite {
		if _, err := os.Stat(target); err == nil {
			return false, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return false, fmt.Errorf("create folder for %s: %w", rel, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", rel, err)
	}
	return true, nil
}

// WriteResource writes an attachment body. Identical semantics to
// WriteNote; attachments are content-addressed so overwrite is cheap.
func (v *Vault) WriteResource(rel string, body []byte, overwrite bool) (written bool, err error) {
	return v.WriteNote(rel, body, overwrite)
}

// ApplyTimes stamps a written file with the note's timestamps. The
// modification time is portable; creation time needs a platform hook
// and is skipped when none is given.
func (v *Vault) ApplyTimes(rel string, created, updated time.Time, setCreation func(path string, created time.Time) error) error {
	if updated.IsZero() {
		return nil
	}
	target := v.abs(rel)
	if err := os.Chtimes(target, updated, updated); err != nil {
		return fmt.Errorf("set times of %s: %w", rel, err)
	}
	if setCreation != nil {
		return setCreation(target, created)
	}
	return nil
}
