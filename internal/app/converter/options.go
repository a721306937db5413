package converter

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Dialect selects how much embedded HTML the emitter may use for
// formatting Obsidian Markdown has no syntax for.
type Dialect string

const (
	// DialectMarkdown drops formatting with no Markdown equivalent.
	DialectMarkdown Dialect = "markdown"
	// DialectMarkdownHTML falls back to minimal inline HTML for it.
	DialectMarkdownHTML Dialect = "markdown+html"
)

// Escaping strictness levels for the escaping engine.
const (
	EscapingSparing = "sparing"
	EscapingStrict  = "strict"
)

// PDF view modes: how PDF attachments appear in converted notes.
const (
	PDFViewDefault = "default"
	PDFViewTitle   = "title"
	PDFViewPreview = "preview"
)

// Options is the conversion configuration surface consumed by the core.
type Options struct {
	Dialect          Dialect  `yaml:"dialect"`
	MetadataFields   []string `yaml:"metadata_fields"`
	KeepLinkColor    bool     `yaml:"keep_link_color"`
	EscapeBrackets   bool     `yaml:"escape_brackets"`
	Escaping         string   `yaml:"escaping"`
	IndentUnit       string   `yaml:"indent_unit"`
	LinksWithFolders bool     `yaml:"links_with_folders"`
	PDFView          string   `yaml:"pdf_view"`
	FirstLineEmpty   bool     `yaml:"first_line_empty"`
}

// DefaultOptions returns the conversion settings used when the config
// file leaves the convert section out.
func DefaultOptions() Options {
	return Options{
		Dialect:          DialectMarkdownHTML,
		MetadataFields:   []string{"created", "updated", "source", "author", "tags"},
		KeepLinkColor:    false,
		Escaping:         EscapingSparing,
		IndentUnit:       "    ",
		LinksWithFolders: true,
		PDFView:          PDFViewDefault,
	}
}

func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Dialect, validation.Required,
			validation.In(DialectMarkdown, DialectMarkdownHTML)),
		validation.Field(&o.Escaping, validation.Required,
			validation.In(EscapingSparing, EscapingStrict)),
		validation.Field(&o.PDFView, validation.Required,
			validation.In(PDFViewDefault, PDFViewTitle, PDFViewPreview)),
		validation.Field(&o.IndentUnit, validation.Required),
	)
}

func (o Options) useHTML() bool { return o.Dialect == DialectMarkdownHTML }

func (o Options) metadataAllowed(field string) bool {
	for _, f := range o.MetadataFields {
		if f == field {
			return true
		}
	}
	return false
}
