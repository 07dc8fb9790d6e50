package view

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var notesRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		// Raw HTML in notes is dropped, never passed through.
		html.WithHardWraps(),
	),
)

// NotesHTML renders task notes as HTML: fenced blocks become <pre><code>, inline
// backticks become <code>. Empty notes render as "".
func NotesHTML(notes string) string {
	src := strings.TrimSpace(notes)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := notesRenderer.Convert([]byte(src), &b); err != nil {
		return "<pre>" + template.HTMLEscapeString(src) + "</pre>"
	}
	return strings.TrimSpace(b.String())
}
