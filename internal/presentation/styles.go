package presentation

import (
	"fmt"
	"strings"

	"github.com/atinylittleshell/matchcolor/internal/powerups"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type styles struct {
	banner  lipgloss.Style
	heading lipgloss.Style
	name    lipgloss.Style
	muted   lipgloss.Style
	reward  lipgloss.Style
	hint    lipgloss.Style
	done    lipgloss.Style
	locked  lipgloss.Style

	rarities map[powerups.Rarity]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		banner: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1),
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		name:    r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		reward:  r.NewStyle().Foreground(lipgloss.Color("10")),
		hint:    r.NewStyle().Foreground(lipgloss.Color("12")),
		done:    r.NewStyle().Foreground(lipgloss.Color("10")),
		locked:  r.NewStyle().Foreground(lipgloss.Color("8")),
		rarities: map[powerups.Rarity]lipgloss.Style{
			powerups.RarityCommon:    r.NewStyle(),
			powerups.RarityRare:      r.NewStyle().Foreground(lipgloss.Color("33")),
			powerups.RarityEpic:      r.NewStyle().Foreground(lipgloss.Color("129")),
			powerups.RarityLegendary: r.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
		},
	}
}

func (s styles) rarity(r powerups.Rarity) lipgloss.Style {
	if style, ok := s.rarities[r]; ok {
		return style
	}
	return s.rarities[powerups.RarityCommon]
}

// Helper functions

func renderProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	filled := int(progress * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// padRight pads to a display width, so emoji count as two columns
func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

func formatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds + 0.5)
	if total >= 60 {
		return fmt.Sprintf("%dm%02ds", total/60, total%60)
	}
	return fmt.Sprintf("%ds", total)
}
