package converter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quiettype/evernote2obsidian/internal/domain/evernote"
)

const frontmatterTimeLayout = "2006-01-02 15:04:05"

// frontmatter is the YAML property block written ahead of a note body.
// Field order matches the struct order, stable across runs.
type frontmatter struct {
	Created  string   `yaml:"created,omitempty"`
	Updated  string   `yaml:"updated,omitempty"`
	Source   string   `yaml:"source,omitempty"`
	Author   string   `yaml:"author,omitempty"`
	Location string   `yaml:"location,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

// Frontmatter renders the metadata block for a note, honoring the
// configured field allow list. Returns "" when nothing is enabled.
func Frontmatter(note *evernote.Note, opts Options) (string, error) {
	var fm frontmatter
	if opts.metadataAllowed("created") && note.Created != 0 {
		fm.Created = evernote.TimeFromMillis(note.Created).Format(frontmatterTimeLayout)
	}
	if opts.metadataAllowed("updated") && note.Updated != 0 {
		fm.Updated = evernote.TimeFromMillis(note.Updated).Format(frontmatterTimeLayout)
	}
	if opts.metadataAllowed("source") {
		fm.Source = note.Attributes.SourceURL
	}
	if opts.metadataAllowed("author") {
		fm.Author = note.Attributes.Author
	}
	if opts.metadataAllowed("location") {
		fm.Location = formatLocation(note.Attributes)
	}
	if opts.metadataAllowed("tags") {
		for _, tag := range note.TagNames {
			fm.Tags = append(fm.Tags, tagName(tag))
		}
	}
	if fm.Created == "" && fm.Updated == "" && fm.Source == "" &&
		fm.Author == "" && fm.Location == "" && len(fm.Tags) == 0 {
		return "", nil
	}

	body, err := yaml.Marshal(&fm)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	return "---\n" + string(body) + "---\n", nil
}

func formatLocation(a evernote.NoteAttributes) string {
	if a.PlaceName != "" {
		return a.PlaceName
	}
	if a.Latitude != 0 || a.Longitude != 0 {
		return fmt.Sprintf("%.5f,%.5f", a.Latitude, a.Longitude)
	}
	return ""
}

// tagName makes a tag usable in Obsidian, which cannot stand spaces or
// hashes inside tags.
func tagName(tag string) string {
	tag = strings.ReplaceAll(tag, " ", "-")
	return strings.ReplaceAll(tag, "#", "")
}
