package tui

import (
	"strconv"
	"strings"
	"sync"

	"protask/internal/model"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

var (
	mdRendererMu sync.Mutex
	// Renderers are cached by style and wrap width; WithAutoStyle is avoided because it
	// can block on terminal queries.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func markdownStyle(t model.Theme) string {
	if t == model.ThemeDark {
		return styles.DarkStyle
	}
	return styles.LightStyle
}

// renderNotes renders task notes for the terminal. Code spans and fenced blocks get
// glamour's code styling. Rendering failures fall back to the raw text.
func renderNotes(md string, width int, t model.Theme) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	style := markdownStyle(t)
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
			glamour.WithEmoji(),
		)
		if err != nil {
			mdRendererMu.Unlock()
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	mdRendererMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
