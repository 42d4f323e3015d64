// Package presentation renders achievement, power-up and profile state to a
// terminal.
package presentation

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/atinylittleshell/matchcolor/internal/achievements"
	"github.com/atinylittleshell/matchcolor/internal/powerups"
	"github.com/atinylittleshell/matchcolor/internal/profile"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal
const DefaultWidth = 72

// Terminal writes banners and listings to an output stream. It implements
// the presenters of the achievement tracker, the power-up manager and the
// profile.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	width  int
	styles styles
	title  *titleWriter
}

// NewTerminal builds a terminal for out. Colors are only used when out is
// an interactive terminal.
func NewTerminal(out io.Writer) *Terminal {
	profile := termenv.Ascii
	width := DefaultWidth

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		profile = termenv.EnvColorProfile()
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && w < DefaultWidth {
			width = w
		}
	}

	return NewTerminalWithProfile(out, profile, width)
}

// NewTerminalWithProfile builds a terminal with a fixed color profile
func NewTerminalWithProfile(out io.Writer, profile termenv.Profile, width int) *Terminal {
	if width <= 0 {
		width = DefaultWidth
	}

	renderer := lipgloss.NewRenderer(out)
	renderer.SetColorProfile(profile)

	return &Terminal{
		out:    out,
		width:  width,
		styles: newStyles(renderer),
		title:  newTitleWriter(termenv.NewOutput(out, termenv.WithProfile(profile)), profile == termenv.Ascii),
	}
}

func (t *Terminal) write(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.out, s)
}

// ShowUnlock prints an achievement banner
func (t *Terminal) ShowUnlock(n achievements.Notification) {
	t.write(t.UnlockBanner(n.Achievement) + "\n")
}

// UnlockBanner renders the banner for a newly unlocked achievement
func (t *Terminal) UnlockBanner(def achievements.Definition) string {
	inner := t.width - 4

	var sb strings.Builder
	sb.WriteString(t.styles.heading.Render("ACHIEVEMENT UNLOCKED"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s %s\n", def.Icon, t.styles.name.Render(def.Name)))
	sb.WriteString(t.styles.muted.Render(wordwrap.String(def.Description, inner)))
	sb.WriteString("\n")
	sb.WriteString(t.styles.reward.Render(rewardLine(def.Reward)))

	return t.styles.banner.Width(inner).Render(sb.String())
}

func rewardLine(r achievements.Reward) string {
	parts := make([]string, 0, 2)
	if r.Coins > 0 {
		parts = append(parts, fmt.Sprintf("+%s coins", humanize.Comma(r.Coins)))
	}
	if r.XP > 0 {
		parts = append(parts, fmt.Sprintf("+%s XP", humanize.Comma(int64(r.XP))))
	}
	return strings.Join(parts, "  ")
}

// PowerUpEvent prints a one-line lifecycle message
func (t *Terminal) PowerUpEvent(e powerups.Event) {
	def := e.PowerUp
	style := t.styles.rarity(def.Rarity)

	var line string
	switch e.Kind {
	case powerups.EventActivated:
		line = fmt.Sprintf("%s %s activated", def.Icon, style.Render(def.Name))
		if e.RemainingUses > 0 {
			line += fmt.Sprintf(" (%d uses)", e.RemainingUses)
		} else if def.Duration > 0 {
			line += fmt.Sprintf(" for %s", formatSeconds(def.Duration.Seconds()))
		}
	case powerups.EventConsumed:
		line = fmt.Sprintf("%s %s used, %d left", def.Icon, style.Render(def.Name), e.RemainingUses)
	case powerups.EventExpired:
		line = fmt.Sprintf("%s %s wore off", def.Icon, t.styles.muted.Render(def.Name))
	default:
		return
	}
	t.write(line + "\n")
}

// ShowHint prints the board hint of a visual power-up
func (t *Terminal) ShowHint(h powerups.Hint) {
	def := h.PowerUp
	var line string
	switch def.Effect {
	case powerups.EffectSlowMotion:
		line = fmt.Sprintf("%s game speed x%.1f", def.Icon, h.Speed)
	case powerups.EffectAutoClick:
		line = fmt.Sprintf("%s auto picking cells %s", def.Icon, cellList(h.Cells))
	default:
		line = fmt.Sprintf("%s highlighting cells %s", def.Icon, cellList(h.Cells))
	}
	t.write(t.styles.hint.Render(line) + "\n")
}

// ClearHint prints that a board hint is gone
func (t *Terminal) ClearHint(h powerups.Hint) {
	t.write(t.styles.muted.Render(fmt.Sprintf("%s %s cleared", h.PowerUp.Icon, h.PowerUp.Name)) + "\n")
}

func cellList(cells []powerups.Cell) string {
	if len(cells) == 0 {
		return "(none)"
	}
	idx := make([]string, 0, len(cells))
	for _, c := range cells {
		idx = append(idx, fmt.Sprintf("#%d", c.Index))
	}
	return strings.Join(idx, " ")
}

// LevelUp prints a level-up line
func (t *Terminal) LevelUp(info profile.LevelUpInfo) {
	line := fmt.Sprintf("⭐ Level %d reached", info.NewLevel)
	if info.NewTitle != info.OldTitle {
		line += fmt.Sprintf(", you are now a %s", info.NewTitle)
	}
	t.write(t.styles.heading.Render(line) + "\n")
}

// SetTitle sets the terminal window title when the output supports it
func (t *Terminal) SetTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title.set(title)
}
