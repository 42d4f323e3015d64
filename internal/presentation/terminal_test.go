package presentation

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/atinylittleshell/matchcolor/internal/achievements"
	"github.com/atinylittleshell/matchcolor/internal/powerups"
	"github.com/atinylittleshell/matchcolor/internal/profile"
	"github.com/atinylittleshell/matchcolor/internal/scheduler"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferTerminal() (*Terminal, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewTerminal(buf), buf
}

func TestUnlockBanner(t *testing.T) {
	term, buf := newBufferTerminal()
	def, ok := achievements.DefaultCatalog().Get("first_steps")
	require.True(t, ok)

	term.ShowUnlock(achievements.Notification{Achievement: def})

	out := buf.String()
	assert.Contains(t, out, "ACHIEVEMENT UNLOCKED")
	assert.Contains(t, out, "First Steps")
	assert.Contains(t, out, "+10 coins")
	assert.Contains(t, out, "+50 XP")
	assert.NotContains(t, out, "\x1b[", "plain output must not carry escape codes")
}

func TestPowerUpEvents(t *testing.T) {
	term, buf := newBufferTerminal()
	catalog := powerups.DefaultCatalog()
	shield, _ := catalog.Get("shield")
	freeze, _ := catalog.Get("time_freeze")

	term.PowerUpEvent(powerups.Event{Kind: powerups.EventActivated, PowerUp: shield, RemainingUses: 3})
	term.PowerUpEvent(powerups.Event{Kind: powerups.EventConsumed, PowerUp: shield, RemainingUses: 2})
	term.PowerUpEvent(powerups.Event{Kind: powerups.EventActivated, PowerUp: freeze})
	term.PowerUpEvent(powerups.Event{Kind: powerups.EventExpired, PowerUp: freeze})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Shield activated (3 uses)")
	assert.Contains(t, lines[1], "Shield used, 2 left")
	assert.Contains(t, lines[2], "Time Freeze activated for 10s")
	assert.Contains(t, lines[3], "Time Freeze wore off")
}

func TestHints(t *testing.T) {
	term, buf := newBufferTerminal()
	catalog := powerups.DefaultCatalog()
	highlight, _ := catalog.Get("color_highlight")
	slow, _ := catalog.Get("slow_motion")

	term.ShowHint(powerups.Hint{PowerUp: highlight, Cells: []powerups.Cell{{Index: 2}, {Index: 5}}})
	term.ShowHint(powerups.Hint{PowerUp: slow, Speed: 0.5})
	term.ClearHint(powerups.Hint{PowerUp: highlight})

	out := buf.String()
	assert.Contains(t, out, "highlighting cells #2 #5")
	assert.Contains(t, out, "game speed x0.5")
	assert.Contains(t, out, "Color Highlight cleared")
}

func TestLevelUp(t *testing.T) {
	term, buf := newBufferTerminal()

	term.LevelUp(profile.LevelUpInfo{OldLevel: 10, NewLevel: 11, OldTitle: "Color Novice", NewTitle: "Palette Apprentice"})
	assert.Contains(t, buf.String(), "Level 11 reached, you are now a Palette Apprentice")
}

func TestRenderAchievementsHidesSecrets(t *testing.T) {
	term, _ := newBufferTerminal()
	tracker := achievements.NewTracker(achievements.Options{
		Clock: scheduler.NewManualClock(time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)),
	})
	tracker.OnScoreUpdate(500)

	out := term.RenderAchievements(tracker, "", false)
	assert.Contains(t, out, "1 / 21 unlocked")
	assert.Contains(t, out, "🏆 SCORE (1/3)")
	assert.Contains(t, out, "UNLOCKED")
	assert.Contains(t, out, "???")
	assert.NotContains(t, out, "Night Owl")

	special := term.RenderAchievements(tracker, achievements.CategorySpecial, true)
	assert.Contains(t, special, "Night Owl")
	assert.NotContains(t, special, "SCORE")
}

func TestRenderPowerUps(t *testing.T) {
	term, _ := newBufferTerminal()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	catalog := powerups.DefaultCatalog()
	freeze, _ := catalog.Get("time_freeze")

	active := []powerups.ActivePowerUp{{Definition: freeze, ActivatedAt: now, ExpiresAt: now.Add(7 * time.Second)}}
	out := term.RenderPowerUps(catalog.ByCost(), 1250, active, now)

	assert.Contains(t, out, "balance: 1,250 coins")
	assert.Contains(t, out, "Rainbow Vision")
	assert.Contains(t, out, "active, 7s left")
}

func TestRenderStatus(t *testing.T) {
	term, _ := newBufferTerminal()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	stats := profile.Stats{
		Data:  profile.Data{TotalXP: 400, CoinsEarned: 1200, GamesPlayed: 3, PlayStreak: 2, LastPlayed: now.Add(-2 * time.Hour)},
		Level: 2,
		Title: "Color Novice",
	}

	out := term.RenderStatus(stats, 1500, achievements.Totals{Unlocked: 4, Total: 21}, nil, now)
	assert.Contains(t, out, "LEVEL 2  Color Novice")
	assert.Contains(t, out, "Coins: 1,500 (1,200 earned)")
	assert.Contains(t, out, "Achievements: 4 / 21")
	assert.Contains(t, out, "Play streak: 🔥 2 days")
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "Active power-ups: none")
}

func TestRenderSession(t *testing.T) {
	term, _ := newBufferTerminal()
	st := powerups.State{TimeRemaining: 75, Lives: 3, ScoreMultiplier: 2, ComboMultiplier: 1, TimerFrozen: true, ShieldActive: true, ShieldCount: 3}

	out := term.RenderSession(st)
	assert.Contains(t, out, "time 1m15s (frozen)")
	assert.Contains(t, out, "score x2.00")
	assert.Contains(t, out, "shield 3")
}

func TestPadRightUsesDisplayWidth(t *testing.T) {
	padded := padRight("🔥 Hot", 10)
	assert.Equal(t, 10, runewidth.StringWidth(padded))
	assert.Equal(t, "toolong", padRight("toolong", 3))
}

func TestSanitizeTitle(t *testing.T) {
	assert.Equal(t, "matchcolor level 3", sanitizeTitle("matchcolor\x07 level\t3"))
	assert.Len(t, []rune(sanitizeTitle(strings.Repeat("é", 300))), maxTitleRunes)
	assert.Equal(t, "ab", sanitizeTitle("a\x1b\x00b"))
}

func TestSetTitleSkippedForPlainOutput(t *testing.T) {
	term, buf := newBufferTerminal()
	term.SetTitle("matchcolor")
	assert.Empty(t, buf.String())
}
