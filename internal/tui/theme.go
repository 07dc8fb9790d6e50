package tui

import (
	"os"
	"strings"

	"protask/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// The saved theme decides which side of every adaptive color is used, so the app
// looks the same regardless of what the terminal reports about its background.
var (
	colorMuted      = ac("240", "245")
	colorSurfaceFg  = ac("235", "252")
	colorAccent     = ac("27", "62")
	colorAccentFg   = ac("255", "235")
	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorSelectedFg = ac("235", "255")
	colorControlBg  = ac("252", "235")
	colorBorder     = ac("250", "243")
	colorDanger     = ac("160", "203")
	colorWarn       = ac("130", "214")
	colorOK         = ac("28", "114")

	colorPriorityHigh   = colorDanger
	colorPriorityMedium = colorWarn
	colorPriorityLow    = ac("31", "81")
)

func applyTheme(t model.Theme) {
	lipgloss.SetHasDarkBackground(t == model.ThemeDark)
}

// applyColorProfilePreference honors NO_COLOR and otherwise trusts TERM/COLORTERM when
// they claim more than termenv detects.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}

func styleMuted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorMuted)
}

func styleTitle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
}

func stylePane(focused bool) lipgloss.Style {
	border := colorBorder
	if focused {
		border = colorAccent
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

func styleError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
}

func styleOK() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorOK)
}

func stylePriority(p model.Priority) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(true)
	switch p {
	case model.PriorityHigh:
		return st.Foreground(colorPriorityHigh)
	case model.PriorityMedium:
		return st.Foreground(colorPriorityMedium)
	default:
		return st.Foreground(colorPriorityLow)
	}
}
